package versioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sciforge/depository/pkg/pidstore"
	"gorm.io/gorm"
)

var (
	ErrDraftChildExists = errors.New("a draft child already exists for this concept")
	ErrConceptLocked    = errors.New("concept is locked by another operation")
	ErrNoVersions       = errors.New("concept has no versions")
)

// Graph manages VERSION relations between concept PIDs and their versions.
// The VERSION subgraph is a forest of depth 1; each version has exactly one
// concept parent and at most one child per concept may be a draft.
type Graph struct {
	db      *gorm.DB
	pids    *pidstore.Store
	redis   *redis.Client
	lockTTL time.Duration
}

func NewGraph(db *gorm.DB, pids *pidstore.Store, rdb *redis.Client) *Graph {
	return &Graph{db: db, pids: pids, redis: rdb, lockTTL: 30 * time.Second}
}

func (g *Graph) WithTx(tx *gorm.DB) *Graph {
	return &Graph{db: tx, pids: g.pids.WithTx(tx), redis: g.redis, lockTTL: g.lockTTL}
}

// LockConcept serializes cross-request version operations under a concept.
// The returned function releases the lock; callers also rely on row locks
// inside their transactions, so a lost redis lock degrades to DB ordering.
func (g *Graph) LockConcept(ctx context.Context, conceptValue string) (func(), error) {
	if g.redis == nil {
		return func() {}, nil
	}
	key := "lock:concept:" + conceptValue
	token := uuid.New().String()
	ok, err := g.redis.SetNX(ctx, key, token, g.lockTTL).Result()
	if err != nil {
		// Redis being down must not take publishing down with it.
		return func() {}, nil
	}
	if !ok {
		return nil, ErrConceptLocked
	}
	return func() {
		val, err := g.redis.Get(context.Background(), key).Result()
		if err == nil && val == token {
			g.redis.Del(context.Background(), key)
		}
	}, nil
}

// CreateConcept links the first version under a freshly minted concept PID.
func (g *Graph) CreateConcept(ctx context.Context, conceptID, childID uuid.UUID) error {
	rel := &pidstore.PidRelation{
		ParentID:     conceptID,
		ChildID:      childID,
		RelationType: pidstore.RelationVersion,
		OrderIndex:   1,
		IsLast:       true,
		CreatedAt:    time.Now().UTC(),
	}
	return g.db.WithContext(ctx).Create(rel).Error
}

// Children returns the VERSION edges under a concept ordered by version
// index.
func (g *Graph) Children(ctx context.Context, conceptID uuid.UUID) ([]pidstore.PidRelation, error) {
	var rels []pidstore.PidRelation
	err := g.db.WithContext(ctx).
		Where("parent_id = ? AND relation_type = ?", conceptID, pidstore.RelationVersion).
		Order("order_index asc").
		Find(&rels).Error
	return rels, err
}

// DraftChild finds the in-progress next version under a concept, if any.
// A draft child is an edge whose child PID is still bound to a deposition.
func (g *Graph) DraftChild(ctx context.Context, conceptID uuid.UUID) (*pidstore.PidRelation, error) {
	rels, err := g.Children(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	for i := range rels {
		child, err := g.pids.GetByID(ctx, rels[i].ChildID)
		if err != nil {
			return nil, err
		}
		if child.ObjectType == pidstore.ObjectTypeDeposition {
			return &rels[i], nil
		}
	}
	return nil, nil
}

// AddDraftChild appends a new version edge whose child is still a
// deposition. At most one draft child may exist per concept.
func (g *Graph) AddDraftChild(ctx context.Context, conceptID, childID uuid.UUID) (*pidstore.PidRelation, error) {
	existing, err := g.DraftChild(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDraftChildExists
	}

	rels, err := g.Children(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	rel := &pidstore.PidRelation{
		ParentID:     conceptID,
		ChildID:      childID,
		RelationType: pidstore.RelationVersion,
		OrderIndex:   NextOrderIndex(rels),
		IsLast:       false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := g.db.WithContext(ctx).Create(rel).Error; err != nil {
		return nil, err
	}
	return rel, nil
}

// PromoteChild marks a child as the latest published version and clears
// is_last on its siblings.
func (g *Graph) PromoteChild(ctx context.Context, conceptID, childID uuid.UUID) error {
	err := g.db.WithContext(ctx).Model(&pidstore.PidRelation{}).
		Where("parent_id = ? AND relation_type = ?", conceptID, pidstore.RelationVersion).
		Update("is_last", false).Error
	if err != nil {
		return err
	}
	result := g.db.WithContext(ctx).Model(&pidstore.PidRelation{}).
		Where("parent_id = ? AND child_id = ? AND relation_type = ?", conceptID, childID, pidstore.RelationVersion).
		Update("is_last", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("child %s not under concept %s: %w", childID, conceptID, ErrNoVersions)
	}
	return nil
}

// Parent resolves the concept PID of a version.
func (g *Graph) Parent(ctx context.Context, childID uuid.UUID) (*pidstore.PersistentIdentifier, error) {
	var rel pidstore.PidRelation
	result := g.db.WithContext(ctx).
		First(&rel, "child_id = ? AND relation_type = ?", childID, pidstore.RelationVersion)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, pidstore.ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return g.pids.GetByID(ctx, rel.ParentID)
}

// LastPublished returns the newest non-draft child edge.
func (g *Graph) LastPublished(ctx context.Context, conceptID uuid.UUID) (*pidstore.PidRelation, error) {
	rels, err := g.Children(ctx, conceptID)
	if err != nil {
		return nil, err
	}
	for i := len(rels) - 1; i >= 0; i-- {
		child, err := g.pids.GetByID(ctx, rels[i].ChildID)
		if err != nil {
			return nil, err
		}
		if child.ObjectType == pidstore.ObjectTypeRecord {
			return &rels[i], nil
		}
	}
	return nil, ErrNoVersions
}

// NextOrderIndex computes the order index for a new version edge.
func NextOrderIndex(rels []pidstore.PidRelation) int {
	max := 0
	for _, r := range rels {
		if r.OrderIndex > max {
			max = r.OrderIndex
		}
	}
	return max + 1
}
