package pipeline

import "sync/atomic"

// FetchRequest describes one proxied page fetch. Built once per call and
// never mutated afterwards.
type FetchRequest struct {
	TargetURL string
	APIKey    string
	RenderJS  bool
}

// FetchResult carries either the raw response body or the fetch error,
// plus how many attempts it took to get there.
type FetchResult struct {
	Request  FetchRequest
	Body     []byte
	Attempts int
	Err      error
}

// UserRecord is the normalized projection of one data[].channel.user
// object. Every upstream field is optional: absent scalars are empty
// strings, absent social links are missing map keys.
type UserRecord struct {
	UserID        string            `json:"user_id,omitempty"`
	Username      string            `json:"username,omitempty"`
	Bio           string            `json:"bio,omitempty"`
	SocialLinks   map[string]string `json:"social_media,omitempty"`
	ProfilePicURL string            `json:"profilepic,omitempty"`
}

type Stats struct {
	Attempts    atomic.Int64
	Fetched     atomic.Int64
	FetchErrors atomic.Int64
	Parsed      atomic.Int64
	Extracted   atomic.Int64
}

var PipelineStats Stats
