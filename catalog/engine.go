package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/civicdata/metastore/store"
)

// protectedAttributes may be set once but never changed afterwards.
var protectedAttributes = []string{"accessRights", "confidentiality", "parent_id"}

// latestSuffix is the final segment of an alias row's stored Id.
const latestSuffix = "/latest"

// Repository is the operation surface shared by the four catalogue levels.
// Create is not part of the interface since its signature differs per level.
type Repository interface {
	Get(ctx context.Context, id string, consistent bool) (Item, error)
	List(ctx context.Context, parentID string, filters map[string]string) ([]Item, error)
	Update(ctx context.Context, id string, content Item) (string, error)
	Patch(ctx context.Context, id string, content Item) (string, error)
	Delete(ctx context.Context, id string, cascade bool) error
	DeleteChildren(ctx context.Context, id string) error
}

// engine is the generic repository core, parameterized by the entity type it
// manages and a resolver to the repository of its child type.
type engine struct {
	store     *store.Store
	typ       store.EntityType
	childType store.EntityType  // zero at the leaf level
	child     func() Repository // resolver for cascade; nil at the leaf level
}

// aliasID returns the stored Id of a scope's latest alias.
func aliasID(scope string) string {
	return scope + latestSuffix
}

// parentScope strips the last segment of a compound Id.
func parentScope(id string) string {
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return ""
	}
	return id[:i]
}

// Get fetches the entity at id. Pass consistent to observe a write completed
// within the same logical operation; reads default to eventual consistency.
func (e *engine) Get(ctx context.Context, id string, consistent bool) (Item, error) {
	raw, err := e.store.GetByKey(ctx, id, e.typ, consistent)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	item, err := unmarshalItem(raw)
	if err != nil {
		return nil, err
	}
	resolveAlias(item)
	return item, nil
}

// resolveAlias rewrites the view of a latest-alias row so callers see the
// true child Id, never the literal ".../latest" key.
func resolveAlias(item Item) {
	if latest, ok := item["latest"].(string); ok && latest != "" {
		item["Id"] = latest
	}
}

// List returns all entities of this type, optionally constrained to a parent
// and filtered by attribute equality. Nested types are constrained by Id
// prefix; datasets are not nested under a path, so their parentage is an
// attribute filter instead.
func (e *engine) List(ctx context.Context, parentID string, filters map[string]string) ([]Item, error) {
	prefix := ""
	extra := make(map[string]string, len(filters)+1)
	for k, v := range filters {
		extra[k] = v
	}
	if parentID != "" {
		if e.typ == store.TypeDataset {
			extra["parent_id"] = parentID
		} else {
			prefix = parentID + "/"
		}
	}

	raws, err := e.store.QueryByTypePrefix(ctx, e.typ, prefix, extra)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(raws))
	for _, raw := range raws {
		item, err := unmarshalItem(raw)
		if err != nil {
			return nil, err
		}
		resolveAlias(item)
		items = append(items, item)
	}
	return items, nil
}

// create stamps identity onto content and writes it. With a parent given,
// the parent row must exist; uniqueness is enforced unless updateOnExists is
// set, which is used exclusively for alias rows where overwrite is intended.
func (e *engine) create(ctx context.Context, id string, content Item, parentID string, parentType store.EntityType, updateOnExists bool) (string, error) {
	if parentID != "" {
		if _, err := e.store.GetByKey(ctx, parentID, parentType, false); err != nil {
			if errors.Is(err, store.ErrItemNotFound) {
				return "", fmt.Errorf("%w: %s %s", ErrMissingParent, strings.ToLower(string(parentType)), parentID)
			}
			return "", err
		}
	}

	item := content.clone()
	item["Id"] = id
	item["Type"] = string(e.typ)
	raw, err := marshalItem(item)
	if err != nil {
		return "", err
	}

	cond := store.ConditionNotExists
	if updateOnExists {
		cond = store.ConditionNone
	}
	if err := e.store.PutConditional(ctx, raw, cond); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return "", fmt.Errorf("%w: %s", ErrResourceConflict, id)
		}
		return "", err
	}
	return id, nil
}

// update rewrites the entity at id. With merge set, content is shallow-merged
// onto the existing attributes; otherwise it replaces them. Identity and
// already-set protected attributes are always carried over from the stored
// row, and changing a set protected attribute is a validation error.
func (e *engine) update(ctx context.Context, id string, content Item, merge bool) (Item, error) {
	raw, err := e.store.GetByKey(ctx, id, e.typ, false)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	existing, err := unmarshalItem(raw)
	if err != nil {
		return nil, err
	}

	var next Item
	if merge {
		next = existing.clone()
		for k, v := range content {
			next[k] = v
		}
	} else {
		next = content.clone()
	}
	next["Id"] = existing["Id"]
	next["Type"] = existing["Type"]

	for _, attr := range protectedAttributes {
		old, ok := existing[attr]
		if !ok || old == nil {
			continue
		}
		val, present := next[attr]
		if !present || val == nil {
			next[attr] = old
			continue
		}
		if !reflect.DeepEqual(old, val) {
			return nil, &ValidationError{Attribute: attr, Reason: "value can only be set once"}
		}
	}

	out, err := marshalItem(next)
	if err != nil {
		return nil, err
	}
	// No uniqueness condition: this path assumes the row exists, and two
	// racing updates resolve last-write-wins.
	if err := e.store.PutConditional(ctx, out, store.ConditionNone); err != nil {
		return nil, err
	}
	return next, nil
}

// Update replaces the entity's attributes with content.
func (e *engine) Update(ctx context.Context, id string, content Item) (string, error) {
	if _, err := e.update(ctx, id, content, false); err != nil {
		return "", err
	}
	return id, nil
}

// Patch shallow-merges content onto the entity's existing attributes.
func (e *engine) Patch(ctx context.Context, id string, content Item) (string, error) {
	if _, err := e.update(ctx, id, content, true); err != nil {
		return "", err
	}
	return id, nil
}

// Delete removes the entity at id. With children present the delete fails
// unless cascade is requested, in which case descendants are removed depth
// first before the entity itself. A cascade that fails partway leaves a
// partially deleted subtree; the stream repair handler converges it.
func (e *engine) Delete(ctx context.Context, id string, cascade bool) error {
	if e.childType != "" {
		children, err := e.store.QueryByTypePrefix(ctx, e.childType, id+"/", nil)
		if err != nil {
			return err
		}
		if len(children) > 0 && !cascade {
			return fmt.Errorf("%w: %s", ErrDeleteConflict, id)
		}
		if err := e.deleteAll(ctx, children); err != nil {
			return err
		}
	}

	if err := e.store.DeleteConditional(ctx, id, e.typ, store.ConditionExists); err != nil {
		if errors.Is(err, store.ErrConditionFailed) {
			return fmt.Errorf("%w: %s", ErrResourceNotFound, id)
		}
		return err
	}
	return nil
}

// DeleteChildren removes every descendant under id, depth first, leaving the
// row at id itself alone. The stream repair handler uses this to sweep up
// after a parent row that is already gone.
func (e *engine) DeleteChildren(ctx context.Context, id string) error {
	if e.childType == "" {
		return nil
	}
	children, err := e.store.QueryByTypePrefix(ctx, e.childType, id+"/", nil)
	if err != nil {
		return err
	}
	return e.deleteAll(ctx, children)
}

// deleteAll cascades into each enumerated child through the child
// repository. A child that vanished since enumeration is not an error.
func (e *engine) deleteAll(ctx context.Context, children []store.Item) error {
	if len(children) == 0 {
		return nil
	}
	repo := e.child()
	for _, raw := range children {
		id := storedID(raw)
		if id == "" {
			continue
		}
		if err := repo.Delete(ctx, id, true); err != nil && !errors.Is(err, ErrResourceNotFound) {
			return fmt.Errorf("cascade %s: %w", id, err)
		}
	}
	return nil
}

// storedID reads the literal stored Id, bypassing alias resolution so that
// alias rows are addressed by their ".../latest" key.
func storedID(raw store.Item) string {
	if v, ok := raw["Id"].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// writeAlias overwrites the latest alias of scope with a copy of the child
// at childID. The alias is replaced whole, never merged.
func (e *engine) writeAlias(ctx context.Context, scope, childID string, content Item) error {
	alias := content.clone()
	alias["latest"] = childID
	_, err := e.create(ctx, aliasID(scope), alias, "", "", true)
	return err
}

// refreshAlias rewrites the scope's latest alias when childID is the child
// it currently points at; updating any other child leaves the alias alone,
// so an older child never reappears as latest.
func (e *engine) refreshAlias(ctx context.Context, scope, childID string, written Item) error {
	raw, err := e.store.GetByKey(ctx, aliasID(scope), e.typ, true)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			return nil
		}
		return err
	}
	alias, err := unmarshalItem(raw)
	if err != nil {
		return err
	}
	if latest, _ := alias["latest"].(string); latest != childID {
		return nil
	}
	return e.writeAlias(ctx, scope, childID, written)
}
