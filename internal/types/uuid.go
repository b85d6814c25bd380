package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/teris-io/shortid"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex memb_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

var (
	sidGenerator *shortid.Shortid
	once         sync.Once
)

func initializeSID() {
	var err error
	sidGenerator, err = shortid.New(1, shortid.DefaultABC, 2342)
	if err != nil {
		panic("failed to initialize shortid generator: " + err.Error())
	}
}

// GenerateJoinCode returns a short, URL-safe code used in plan join links,
// e.g. `JN7Q2A8X`. Uppercased and capped at 10 characters.
func GenerateJoinCode() string {
	once.Do(initializeSID)

	code, err := sidGenerator.Generate()
	if err != nil {
		return ""
	}
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, "_", "")
	if len(code) > 10 {
		code = code[:10]
	}
	return strings.ToUpper(code)
}

const (
	// Prefixes for all domains and entities

	UUID_PREFIX_MEMBERSHIP    = "memb"
	UUID_PREFIX_WEBHOOK_EVENT = "webhook"
)
