package service

import (
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/forest"
	"github.com/MyNameIsWhaaat/commentforest/internal/comment/model"
)

// orphanQueue parks comments whose parent has not been seeded yet, grouped
// by the id they are waiting for.
type orphanQueue struct {
	byTarget map[string][]model.CommentNode
	targets  []string
}

func newOrphanQueue() *orphanQueue {
	return &orphanQueue{byTarget: make(map[string][]model.CommentNode)}
}

func (q *orphanQueue) park(c model.CommentNode) {
	target := c.TargetID()
	if _, ok := q.byTarget[target]; !ok {
		q.targets = append(q.targets, target)
	}
	q.byTarget[target] = append(q.byTarget[target], c)
}

// release hands back every comment waiting for id.
func (q *orphanQueue) release(id string) []model.CommentNode {
	waiting, ok := q.byTarget[id]
	if !ok {
		return nil
	}
	delete(q.byTarget, id)
	return waiting
}

// remaining reports what is still parked, in the order targets were first seen.
func (q *orphanQueue) remaining() []*forest.OrphanError {
	var out []*forest.OrphanError
	for _, target := range q.targets {
		for _, c := range q.byTarget[target] {
			out = append(out, &forest.OrphanError{CommentID: c.ID, TargetID: target})
		}
	}
	return out
}
