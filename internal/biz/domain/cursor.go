package domain

import "time"

// RotationCursor is the persisted assignment state: one rotation index per
// team key, the dedup record of processed comment ids, and a per-post
// created-time watermark that keeps trimmed ids from resurfacing as new.
//
// The cursor is loaded once at cycle start, mutated in memory as comments
// are assigned, and handed back to the state store. It is never shared
// between goroutines.
type RotationCursor struct {
	Indexes    map[string]int   `json:"indexes"`    // team key -> last assigned roster index
	Seen       map[string]int64 `json:"seen"`       // comment id -> seen-at unix seconds
	Watermarks map[string]int64 `json:"watermarks"` // post id -> max comment created unix seconds
}

// NewRotationCursor creates an empty cursor
func NewRotationCursor() *RotationCursor {
	return &RotationCursor{
		Indexes:    make(map[string]int),
		Seen:       make(map[string]int64),
		Watermarks: make(map[string]int64),
	}
}

// Normalize ensures all maps are non-nil after JSON decoding
func (c *RotationCursor) Normalize() {
	if c.Indexes == nil {
		c.Indexes = make(map[string]int)
	}
	if c.Seen == nil {
		c.Seen = make(map[string]int64)
	}
	if c.Watermarks == nil {
		c.Watermarks = make(map[string]int64)
	}
}

// Index returns the last assigned index for the key, -1 when unset
func (c *RotationCursor) Index(key string) int {
	if idx, ok := c.Indexes[key]; ok {
		return idx
	}
	return -1
}

// Advance moves the rotation to the next member and returns the new index.
// The stored index may be out of range if the roster changed between runs;
// the modulo keeps the result within [0, rosterSize).
func (c *RotationCursor) Advance(key string, rosterSize int) int {
	idx := c.Index(key)
	next := ((idx + 1) % rosterSize + rosterSize) % rosterSize
	c.Indexes[key] = next
	return next
}

// HasSeen checks whether the comment id is in the dedup record
func (c *RotationCursor) HasSeen(commentID string) bool {
	_, ok := c.Seen[commentID]
	return ok
}

// MarkSeen records a processed comment and raises the post watermark
func (c *RotationCursor) MarkSeen(comment Comment, seenAt time.Time) {
	c.Seen[comment.ID] = seenAt.Unix()
	if created := comment.Created.Unix(); created > c.Watermarks[comment.PostID] {
		c.Watermarks[comment.PostID] = created
	}
}

// Watermark returns the highest processed comment creation time for a post,
// zero time when none recorded
func (c *RotationCursor) Watermark(postID string) time.Time {
	if ts, ok := c.Watermarks[postID]; ok {
		return time.Unix(ts, 0)
	}
	return time.Time{}
}

// Trim drops dedup entries seen before the cutoff and returns the count
// removed. Watermarks are kept so trimmed comments stay filtered.
func (c *RotationCursor) Trim(before time.Time) int {
	cutoff := before.Unix()
	removed := 0
	for id, seenAt := range c.Seen {
		if seenAt < cutoff {
			delete(c.Seen, id)
			removed++
		}
	}
	return removed
}

// Clone returns a deep copy, used to keep a pre-mutation snapshot around
func (c *RotationCursor) Clone() *RotationCursor {
	clone := NewRotationCursor()
	for k, v := range c.Indexes {
		clone.Indexes[k] = v
	}
	for k, v := range c.Seen {
		clone.Seen[k] = v
	}
	for k, v := range c.Watermarks {
		clone.Watermarks[k] = v
	}
	return clone
}
