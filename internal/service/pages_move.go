package service

import (
	"context"

	"github.com/cmskit/cmskit-server/internal/domain"
	domainerrors "github.com/cmskit/cmskit-server/internal/errors"
	"github.com/cmskit/cmskit-server/internal/store"
	"github.com/cmskit/cmskit-server/internal/tree"
	"github.com/cmskit/cmskit-server/internal/treepath"
)

// Move relocates the subtree of id relative to targetID. Child positions
// place it under the target, sibling positions next to it. Every check runs
// before the first write; the subtree is then rewritten and saved as moved
// in the same transaction.
func (s *PageService) Move(ctx context.Context, id, targetID string, pos domain.Position) (*domain.Specific, error) {
	if !pos.Valid() {
		return nil, domainerrors.InvalidPositionf("unknown position %q", pos)
	}

	var (
		moved   *domain.Specific
		touched []*domain.Page
	)
	err := s.store.InTx(ctx, func(q store.Querier) error {
		touched = touched[:0]

		node, err := getPage(ctx, q, id)
		if err != nil {
			return err
		}
		target, err := getPage(ctx, q, targetID)
		if err != nil {
			return err
		}
		if target.ID == node.ID || treepath.IsDescendant(target.Path, node.Path) {
			return domainerrors.InvalidPositionf("cannot move %s into its own subtree", node.ID)
		}

		newParent, err := s.destinationParent(ctx, q, target, pos)
		if err != nil {
			return err
		}
		if newParent != nil && !s.registry.CanExistUnder(node.TypeTag, newParent.TypeTag) {
			return domainerrors.InvalidPositionf("%s cannot be placed under %s", node.TypeTag, newParent.TypeTag)
		}

		oldParentID := node.ParentID
		newParentID := ""
		parentPath := ""
		if newParent != nil {
			newParentID = newParent.ID
			parentPath = newParent.Path
		}
		if newParent != nil && newParentID != oldParentID {
			if err := checkSiblingSlug(ctx, q, newParent, node.Slug, node.ID); err != nil {
				return err
			}
		}

		slot, err := s.openSlot(ctx, q, node, target, parentPath, pos)
		if err != nil {
			return err
		}

		// Shifting may have moved the node itself.
		if node, err = getPage(ctx, q, id); err != nil {
			return err
		}
		delta := s.codec.Depth(slot) - node.Depth
		if _, err := q.RewritePrefix(ctx, node.Path, slot, delta); err != nil {
			return err
		}
		if err := q.SetParent(ctx, node.ID, newParentID); err != nil {
			return err
		}
		if oldParentID != newParentID {
			if oldParentID != "" {
				if err := q.AdjustNumChild(ctx, oldParentID, -1); err != nil {
					return err
				}
			}
			if newParentID != "" {
				if err := q.AdjustNumChild(ctx, newParentID, 1); err != nil {
					return err
				}
			}
		}

		stored, err := getPage(ctx, q, id)
		if err != nil {
			return err
		}
		sp, err := s.resolver.ResolveOne(ctx, q, s.resolver.Generic(stored))
		if err != nil {
			return err
		}
		if err := s.saveCascade(ctx, q, sp, true, &touched); err != nil {
			return err
		}
		moved = sp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("page moved",
		"id", id,
		"target", targetID,
		"position", string(pos),
		"path", moved.Path,
	)
	s.reindex(ctx, touched)
	return moved, nil
}

// destinationParent returns the page that will own the moved node, or nil
// for the root level.
func (s *PageService) destinationParent(ctx context.Context, q store.PageQuerier, target *domain.Page, pos domain.Position) (*domain.Page, error) {
	if pos.IsChild() {
		return target, nil
	}
	if target.ParentID == "" {
		return nil, nil
	}
	return getPage(ctx, q, target.ParentID)
}

// openSlot returns a free path at the destination level for pos, shifting
// the following siblings one step right when the slot is taken.
func (s *PageService) openSlot(ctx context.Context, q store.PageQuerier, node, target *domain.Page, parentPath string, pos domain.Position) (string, error) {
	level := tree.AtLevel(parentPath, s.codec.Depth(parentPath)+1)

	var from string
	switch pos {
	case domain.LastChild, domain.LastSibling:
		return s.nextChildPath(ctx, q, parentPath)
	case domain.FirstChild, domain.FirstSibling:
		from = s.codec.First(parentPath)
	case domain.LeftSibling:
		from = target.Path
	case domain.RightSibling:
		next, err := s.codec.Next(target.Path)
		if err != nil {
			return "", err
		}
		from = next
	case domain.SortedChild, domain.SortedSibling:
		siblings, err := q.FindPages(ctx, tree.Where(tree.And(level, tree.Not(tree.ID(node.ID)))))
		if err != nil {
			return "", err
		}
		for _, sib := range siblings {
			if sib.Slug > node.Slug {
				from = sib.Path
				break
			}
		}
		if from == "" {
			return s.nextChildPath(ctx, q, parentPath)
		}
	default:
		return "", domainerrors.InvalidPositionf("unknown position %q", pos)
	}

	following, err := q.FindPages(ctx,
		tree.Where(tree.And(level, tree.PathAfter(from, true))).OrderBy(tree.ByPathDesc))
	if err != nil {
		return "", err
	}
	for _, sib := range following {
		next, err := s.codec.Next(sib.Path)
		if err != nil {
			return "", err
		}
		if _, err := q.RewritePrefix(ctx, sib.Path, next, 0); err != nil {
			return "", err
		}
	}
	return from, nil
}
