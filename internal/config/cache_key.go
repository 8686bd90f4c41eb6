package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AttemptDraftKey returns the hash key holding autosaved answers for an in-progress attempt.
// Fields are question IDs, values are JSON-encoded submissions.
func (r *CacheKeyStruct) AttemptDraftKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:drafts", attemptID)
}

var CacheKey = NewCacheKeyStruct()
