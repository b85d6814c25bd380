package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/splitsub/splitsub/internal/domain/membership"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/types"
)

type membershipKey struct {
	username string
	planID   string
}

// InMemoryMembershipStore is an in-memory implementation of
// membership.Repository. It reads member emails from the user store the
// same way the SQL implementation joins the users table.
type InMemoryMembershipStore struct {
	mu          sync.Mutex
	memberships map[membershipKey]*membership.Membership
	users       *InMemoryUserStore
}

func NewInMemoryMembershipStore(users *InMemoryUserStore) *InMemoryMembershipStore {
	return &InMemoryMembershipStore{
		memberships: make(map[membershipKey]*membership.Membership),
		users:       users,
	}
}

func (s *InMemoryMembershipStore) Upsert(ctx context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{username: m.Username, planID: m.PlanID}
	if m.SubscriptionID != nil {
		for k, other := range s.memberships {
			if k != key && other.SubscriptionID != nil && *other.SubscriptionID == *m.SubscriptionID {
				return s.uniqueViolation("subscription already assigned to another membership")
			}
		}
	}

	if existing, ok := s.memberships[key]; ok {
		existing.Quantity = m.Quantity
		existing.Status = m.Status
		existing.SubscriptionID = m.SubscriptionID
		existing.SubscriptionItemID = m.SubscriptionItemID
		existing.PriceID = m.PriceID
		existing.UpdatedAt = time.Now().UTC()
		return nil
	}

	if m.IsOwner && s.hasOtherOwner(m.PlanID, m.Username) {
		return s.uniqueViolation("plan already has an owner")
	}

	clone := *m
	s.memberships[key] = &clone
	return nil
}

func (s *InMemoryMembershipStore) Get(ctx context.Context, username, planID string) (*membership.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memberships[membershipKey{username: username, planID: planID}]
	if !ok {
		return nil, s.notFound()
	}
	clone := *m
	return &clone, nil
}

func (s *InMemoryMembershipStore) GetBySubscription(ctx context.Context, subscriptionID string) (*membership.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.memberships {
		if m.SubscriptionID != nil && *m.SubscriptionID == subscriptionID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, s.notFound()
}

func (s *InMemoryMembershipStore) Delete(ctx context.Context, username, planID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.memberships, membershipKey{username: username, planID: planID})
	return nil
}

func (s *InMemoryMembershipStore) AggregateQuantity(ctx context.Context, planID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, m := range s.memberships {
		if m.PlanID == planID {
			total += m.Quantity
		}
	}
	return total, nil
}

func (s *InMemoryMembershipStore) ListOthersOnPlan(ctx context.Context, planID, excludeSubscriptionID string) ([]*membership.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := []*membership.Contact{}
	for _, m := range s.memberships {
		if m.PlanID != planID || m.SubscriptionID == nil || *m.SubscriptionID == excludeSubscriptionID {
			continue
		}
		contacts = append(contacts, s.contact(m))
	}
	sortContacts(contacts)
	return contacts, nil
}

func (s *InMemoryMembershipStore) ListBehindPrice(ctx context.Context, planID, priceID string) ([]*membership.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := []*membership.Contact{}
	for _, m := range s.memberships {
		if m.PlanID != planID || m.SubscriptionID == nil {
			continue
		}
		if m.PriceID != nil && *m.PriceID == priceID {
			continue
		}
		contacts = append(contacts, s.contact(m))
	}
	sortContacts(contacts)
	return contacts, nil
}

func (s *InMemoryMembershipStore) UpdateStatusBySubscription(ctx context.Context, subscriptionID string, status types.MembershipStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.memberships {
		if m.SubscriptionID != nil && *m.SubscriptionID == subscriptionID {
			m.Status = status
			m.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return s.notFound()
}

func (s *InMemoryMembershipStore) UpdatePriceBySubscription(ctx context.Context, subscriptionID, priceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.memberships {
		if m.SubscriptionID != nil && *m.SubscriptionID == subscriptionID {
			p := priceID
			m.PriceID = &p
			m.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (s *InMemoryMembershipStore) SetOwner(ctx context.Context, username, planID string, isOwner bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memberships[membershipKey{username: username, planID: planID}]
	if !ok {
		return s.notFound()
	}
	if isOwner && s.hasOtherOwner(planID, username) {
		return s.uniqueViolation("plan already has an owner")
	}
	m.IsOwner = isOwner
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// hasOtherOwner reports whether another membership of the plan already
// carries the owner flag, mirroring the database's partial unique index
func (s *InMemoryMembershipStore) hasOtherOwner(planID, username string) bool {
	for k, m := range s.memberships {
		if k.planID == planID && m.IsOwner && k.username != username {
			return true
		}
	}
	return false
}

func (s *InMemoryMembershipStore) uniqueViolation(msg string) error {
	return ierr.NewError(msg).
		WithHint("Failed to save membership").
		Mark(ierr.ErrDatabase)
}

// ListByPlan returns all memberships of a plan, for test assertions
func (s *InMemoryMembershipStore) ListByPlan(planID string) []*membership.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*membership.Membership{}
	for _, m := range s.memberships {
		if m.PlanID == planID {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (s *InMemoryMembershipStore) contact(m *membership.Membership) *membership.Contact {
	email := ""
	if u, err := s.users.GetByUsername(context.Background(), m.Username); err == nil {
		email = u.Email
	}
	return &membership.Contact{
		Username:           m.Username,
		Email:              email,
		SubscriptionID:     m.SubscriptionID,
		SubscriptionItemID: m.SubscriptionItemID,
		Quantity:           m.Quantity,
	}
}

func sortContacts(contacts []*membership.Contact) {
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].Username < contacts[j].Username })
}

func (s *InMemoryMembershipStore) notFound() error {
	return ierr.NewError("membership not found").
		WithHint("Membership was not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryMembershipStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = make(map[membershipKey]*membership.Membership)
}
