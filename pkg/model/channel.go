package model

import "slices"

// ChannelID identifies a channel within one document.
type ChannelID int

// NoChannel is the parent of every root channel.
const NoChannel ChannelID = -1

// Channel is a named track. AllowedTypes restricts which annotation values
// may be placed on it; nil means anything goes.
type Channel struct {
	ID           ChannelID
	ParentID     ChannelID
	Name         string
	AllowedTypes []string
}

// IsRoot reports whether the channel has no parent.
func (c Channel) IsRoot() bool {
	return c.ParentID == NoChannel
}

// Clone returns a deep copy of c. A nil AllowedTypes stays nil so that
// "unrestricted" and "restricted to nothing" remain distinguishable.
func (c Channel) Clone() Channel {
	out := c
	if c.AllowedTypes != nil {
		out.AllowedTypes = slices.Clone(c.AllowedTypes)
	}
	return out
}

// Allows reports whether an annotation with the given value may be placed on
// this channel.
func (c Channel) Allows(value string) bool {
	if c.AllowedTypes == nil {
		return true
	}
	return slices.Contains(c.AllowedTypes, value)
}

// Equal reports whether two channel snapshots match.
func (c Channel) Equal(o Channel) bool {
	if c.ID != o.ID || c.ParentID != o.ParentID || c.Name != o.Name {
		return false
	}
	if (c.AllowedTypes == nil) != (o.AllowedTypes == nil) {
		return false
	}
	return slices.Equal(c.AllowedTypes, o.AllowedTypes)
}
