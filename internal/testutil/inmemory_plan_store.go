package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/splitsub/splitsub/internal/domain/plan"
	ierr "github.com/splitsub/splitsub/internal/errors"
	"github.com/splitsub/splitsub/internal/types"
)

// InMemoryPlanStore is an in-memory implementation of plan.Repository.
// Snapshot and listing reads join the user and membership stores the way
// the SQL implementation joins their tables.
type InMemoryPlanStore struct {
	mu          sync.Mutex
	plans       map[string]*plan.Plan
	users       *InMemoryUserStore
	memberships *InMemoryMembershipStore
}

func NewInMemoryPlanStore(users *InMemoryUserStore, memberships *InMemoryMembershipStore) *InMemoryPlanStore {
	return &InMemoryPlanStore{
		plans:       make(map[string]*plan.Plan),
		users:       users,
		memberships: memberships,
	}
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[p.ID]; exists {
		return ierr.NewError("plan already exists").
			WithHint("A plan with this id already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	clone := *p
	s.plans[p.ID] = &clone
	return nil
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, s.notFound()
	}
	clone := *p
	return &clone, nil
}

func (s *InMemoryPlanStore) GetByJoinCode(ctx context.Context, joinCode string) (*plan.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.plans {
		if p.JoinCode == joinCode {
			clone := *p
			return &clone, nil
		}
	}
	return nil, s.notFound()
}

func (s *InMemoryPlanStore) GetSnapshot(ctx context.Context, id, requester string) (*plan.Snapshot, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var owner *plan.Member
	members := []*plan.Member{}
	for _, m := range s.memberships.ListByPlan(id) {
		member := s.member(m.Username, m.Quantity)
		if m.IsOwner {
			owner = member
		}
		if m.Quantity > 0 && m.Status == types.MembershipStatusActive && m.Username != requester {
			members = append(members, member)
		}
	}
	if owner == nil {
		return nil, s.notFound()
	}

	sort.Slice(members, func(i, j int) bool { return members[i].Username < members[j].Username })
	return &plan.Snapshot{Plan: p, Owner: owner, ActiveMembers: members}, nil
}

func (s *InMemoryPlanStore) UpdateActivePrice(ctx context.Context, id, priceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plans[id]
	if !ok {
		return s.notFound()
	}
	price := priceID
	p.ActivePriceID = &price
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryPlanStore) ListByUser(ctx context.Context, username string) ([]*plan.Overview, error) {
	s.mu.Lock()
	planIDs := []string{}
	for id := range s.plans {
		planIDs = append(planIDs, id)
	}
	s.mu.Unlock()
	sort.Strings(planIDs)

	overviews := []*plan.Overview{}
	for _, id := range planIDs {
		var own *struct {
			quantity int64
			subID    *string
			itemID   *string
		}
		var ownerUsername string
		for _, m := range s.memberships.ListByPlan(id) {
			if m.IsOwner {
				ownerUsername = m.Username
			}
			if m.Username == username {
				own = &struct {
					quantity int64
					subID    *string
					itemID   *string
				}{m.Quantity, m.SubscriptionID, m.SubscriptionItemID}
			}
		}
		if own == nil {
			continue
		}

		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, &plan.Overview{
			Plan:               p,
			Owner:              s.member(ownerUsername, 0),
			Quantity:           own.quantity,
			SubscriptionID:     own.subID,
			SubscriptionItemID: own.itemID,
		})
	}
	return overviews, nil
}

func (s *InMemoryPlanStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return s.notFound()
	}
	delete(s.plans, id)
	return nil
}

func (s *InMemoryPlanStore) member(username string, quantity int64) *plan.Member {
	member := &plan.Member{Username: username, Quantity: quantity}
	if u, err := s.users.GetByUsername(context.Background(), username); err == nil {
		member.FirstName = u.FirstName
		member.LastName = u.LastName
		member.StripeCustomerID = u.StripeCustomerID
	}
	return member
}

func (s *InMemoryPlanStore) notFound() error {
	return ierr.NewError("plan not found").
		WithHint("Plan was not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPlanStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans = make(map[string]*plan.Plan)
}
