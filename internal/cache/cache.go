package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Cache defines the interface for caching rendered reports
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}

const keyNamespace = "aivis:v1:"

// generationTTL outlives any report entry, so a lapsed generation never
// resurrects reports written under the initial one.
const generationTTL = 7 * 24 * time.Hour

const initialGeneration = "0"

// ProjectPrefix is the prefix shared by every cached entry of a project
func ProjectPrefix(projectID string) string {
	return keyNamespace + "report:" + projectID + ":"
}

// ReportKey generates the key of a project report, optionally scoped to one keyword
func ReportKey(projectID, keyword string, withAudit bool) string {
	scope := "all"
	if keyword != "" {
		hash := sha256.Sum256([]byte(keyword))
		scope = "kw-" + hex.EncodeToString(hash[:8])
	}
	if withAudit {
		scope += "+audit"
	}
	return ProjectPrefix(projectID) + scope
}

// GenerationKey holds the project's current report generation.
// It lives outside ProjectPrefix so invalidation does not delete it.
func GenerationKey(projectID string) string {
	return keyNamespace + "gen:" + projectID
}

// Generation returns the project's current report generation
func Generation(ctx context.Context, c Cache, projectID string) string {
	if c == nil {
		return initialGeneration
	}
	if val, ok := c.Get(ctx, GenerationKey(projectID)); ok && len(val) > 0 {
		return string(val)
	}
	return initialGeneration
}

// VersionedKey scopes a report key to a generation. A report computed before
// an invalidation is written under the old generation and never read again.
func VersionedKey(key, generation string) string {
	return key + "@" + generation
}

// InvalidateProject moves the project to a new generation and drops its cached reports
func InvalidateProject(ctx context.Context, c Cache, projectID string) error {
	if c == nil {
		return nil
	}
	if err := c.Set(ctx, GenerationKey(projectID), []byte(uuid.NewString()), generationTTL); err != nil {
		return err
	}
	return c.DeletePrefix(ctx, ProjectPrefix(projectID))
}
