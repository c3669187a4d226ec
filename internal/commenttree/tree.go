// Package commenttree turns flat comment rows into reply forests and applies
// local edits to an already built forest.
package commenttree

import (
	"sort"

	"inkwell/internal/models"
)

// MaxDepth is the number of levels rendered for a thread.
const MaxDepth = 3

// Build attaches every comment to its parent and returns the roots in input
// order. Replies are ordered oldest first. A comment whose parent is missing,
// is itself, or belongs to another post is dropped. Nodes caught in a parent
// cycle never reach a root and are therefore dropped too.
func Build(comments []*models.Comment) []*models.Comment {
	index := make(map[uint]*models.Comment, len(comments))
	for _, c := range comments {
		if c == nil {
			continue
		}
		c.Replies = make([]*models.Comment, 0)
		index[c.ID] = c
	}

	roots := make([]*models.Comment, 0)
	for _, c := range comments {
		if c == nil {
			continue
		}
		if c.IsRoot() {
			roots = append(roots, c)
			continue
		}
		parent, ok := index[*c.ParentID]
		if !ok || parent == c || parent.PostID != c.PostID {
			continue
		}
		parent.Replies = append(parent.Replies, c)
	}

	for _, c := range index {
		sortReplies(c.Replies)
		c.ReplyCount = len(c.Replies)
	}
	return roots
}

func sortReplies(replies []*models.Comment) {
	sort.SliceStable(replies, func(i, j int) bool {
		a, b := replies[i], replies[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// Limit returns a copy of the forest cut off below maxDepth levels. Nodes on
// the last level keep ReplyCount so clients can offer "show more". The input
// is not modified.
func Limit(roots []*models.Comment, maxDepth int) []*models.Comment {
	return limit(roots, 1, maxDepth)
}

func limit(nodes []*models.Comment, depth, maxDepth int) []*models.Comment {
	out := make([]*models.Comment, 0, len(nodes))
	for _, n := range nodes {
		cp := *n
		if depth >= maxDepth {
			cp.Replies = make([]*models.Comment, 0)
		} else {
			cp.Replies = limit(n.Replies, depth+1, maxDepth)
		}
		out = append(out, &cp)
	}
	return out
}

// Update replaces the node whose ID matches updated, keeping its replies and
// position. Ancestors of the changed node are copied; every other node keeps
// its identity. When no node matches the input slice is returned as-is.
func Update(roots []*models.Comment, updated *models.Comment) []*models.Comment {
	out, _ := update(roots, updated)
	return out
}

func update(nodes []*models.Comment, updated *models.Comment) ([]*models.Comment, bool) {
	for i, n := range nodes {
		if n.ID == updated.ID {
			repl := *updated
			repl.Replies = n.Replies
			repl.ReplyCount = n.ReplyCount
			out := append([]*models.Comment(nil), nodes...)
			out[i] = &repl
			return out, true
		}
		if replies, ok := update(n.Replies, updated); ok {
			cp := *n
			cp.Replies = replies
			out := append([]*models.Comment(nil), nodes...)
			out[i] = &cp
			return out, true
		}
	}
	return nodes, false
}

// Remove deletes the node with the given ID, and its subtree, from wherever it
// sits. Ancestors are copied with ReplyCount reduced; other nodes keep their
// identity. When no node matches the input slice is returned as-is.
func Remove(roots []*models.Comment, id uint) []*models.Comment {
	out, _ := remove(roots, id)
	return out
}

func remove(nodes []*models.Comment, id uint) ([]*models.Comment, bool) {
	for i, n := range nodes {
		if n.ID == id {
			out := make([]*models.Comment, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			return append(out, nodes[i+1:]...), true
		}
		if replies, ok := remove(n.Replies, id); ok {
			cp := *n
			cp.Replies = replies
			if len(replies) < len(n.Replies) && cp.ReplyCount > 0 {
				cp.ReplyCount--
			}
			out := append([]*models.Comment(nil), nodes...)
			out[i] = &cp
			return out, true
		}
	}
	return nodes, false
}

// Count returns the number of nodes in the forest.
func Count(roots []*models.Comment) int {
	n := 0
	for _, r := range roots {
		n += 1 + Count(r.Replies)
	}
	return n
}

// Find returns the node with the given ID or nil.
func Find(roots []*models.Comment, id uint) *models.Comment {
	for _, r := range roots {
		if r.ID == id {
			return r
		}
		if found := Find(r.Replies, id); found != nil {
			return found
		}
	}
	return nil
}
