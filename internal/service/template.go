package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/menuboard/api/internal/database"
)

// Errors returned by the template service.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrArchiveNotFound  = errors.New("archive not found")
	ErrCorruptSnapshot  = errors.New("archive snapshot is unreadable")
)

// TemplateStore defines the DB methods needed to copy, archive and restore
// template trees. Satisfied by *database.Queries (and its WithTx variant).
type TemplateStore interface {
	GetTemplate(ctx context.Context, arg database.GetTemplateParams) (database.Template, error)
	GetGlobalTemplate(ctx context.Context, id uuid.UUID) (database.Template, error)
	CreateTemplate(ctx context.Context, arg database.CreateTemplateParams) (database.Template, error)
	DeleteTemplate(ctx context.Context, arg database.DeleteTemplateParams) (uuid.UUID, error)
	ListTemplatePages(ctx context.Context, templateID uuid.UUID) ([]database.Page, error)
	ListTemplateSections(ctx context.Context, templateID uuid.UUID) ([]database.Section, error)
	ListTemplateDishes(ctx context.Context, templateID uuid.UUID) ([]database.MenuDish, error)
	ListTemplateComponents(ctx context.Context, templateID uuid.UUID) ([]database.ComponentLayout, error)
	InsertPage(ctx context.Context, arg database.InsertPageParams) (database.Page, error)
	InsertSection(ctx context.Context, arg database.InsertSectionParams) (database.Section, error)
	InsertDish(ctx context.Context, arg database.InsertDishParams) (database.MenuDish, error)
	InsertComponent(ctx context.Context, arg database.InsertComponentParams) (database.ComponentLayout, error)
	CreateArchive(ctx context.Context, arg database.CreateArchiveParams) (database.ArchiveTemplate, error)
	GetArchive(ctx context.Context, arg database.GetArchiveParams) (database.ArchiveTemplate, error)
	DeleteArchive(ctx context.Context, arg database.DeleteArchiveParams) error
}

// NewTemplateStore creates a TemplateStore from a DBTX (pool or tx).
type NewTemplateStore func(db database.DBTX) TemplateStore

// TemplateTree is a template with everything under it. It is also the JSON
// layout of an archive snapshot.
type TemplateTree struct {
	Template   database.Template          `json:"template"`
	Pages      []database.Page            `json:"pages"`
	Sections   []database.Section         `json:"sections"`
	Dishes     []database.MenuDish        `json:"dishes"`
	Components []database.ComponentLayout `json:"components"`
}

// DuplicateRequest copies TemplateID within RestaurantID. An empty Name
// becomes "<source name> (Copy)".
type DuplicateRequest struct {
	RestaurantID uuid.UUID
	TemplateID   uuid.UUID
	Name         string
	CreatedBy    uuid.UUID
}

// TemplateService copies template trees. Every operation runs in one
// transaction.
type TemplateService struct {
	pool     TxBeginner
	newStore NewTemplateStore
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(pool TxBeginner, newStore NewTemplateStore) *TemplateService {
	return &TemplateService{pool: pool, newStore: newStore}
}

// Duplicate copies a restaurant template with all its pages, sections,
// dishes and component layouts.
func (s *TemplateService) Duplicate(ctx context.Context, req DuplicateRequest) (database.Template, error) {
	var out database.Template
	err := s.inTx(ctx, func(store TemplateStore) error {
		src, err := store.GetTemplate(ctx, database.GetTemplateParams{ID: req.TemplateID, RestaurantID: req.RestaurantID})
		if err != nil {
			return notFound(err, ErrTemplateNotFound, "get template")
		}
		tree, err := loadTree(ctx, store, src)
		if err != nil {
			return err
		}
		name := req.Name
		if name == "" {
			name = src.Name + " (Copy)"
		}
		out, err = copyTree(ctx, store, tree, req.RestaurantID, name, req.CreatedBy)
		return err
	})
	return out, err
}

// CopyGlobal copies a global library template into the restaurant.
func (s *TemplateService) CopyGlobal(ctx context.Context, restaurantID, globalID, createdBy uuid.UUID) (database.Template, error) {
	var out database.Template
	err := s.inTx(ctx, func(store TemplateStore) error {
		src, err := store.GetGlobalTemplate(ctx, globalID)
		if err != nil {
			return notFound(err, ErrTemplateNotFound, "get global template")
		}
		tree, err := loadTree(ctx, store, src)
		if err != nil {
			return err
		}
		out, err = copyTree(ctx, store, tree, restaurantID, src.Name, createdBy)
		return err
	})
	return out, err
}

// Publish copies a restaurant template into the global library.
func (s *TemplateService) Publish(ctx context.Context, restaurantID, templateID uuid.UUID, name string, createdBy uuid.UUID) (database.Template, error) {
	var out database.Template
	err := s.inTx(ctx, func(store TemplateStore) error {
		src, err := store.GetTemplate(ctx, database.GetTemplateParams{ID: templateID, RestaurantID: restaurantID})
		if err != nil {
			return notFound(err, ErrTemplateNotFound, "get template")
		}
		tree, err := loadTree(ctx, store, src)
		if err != nil {
			return err
		}
		if name == "" {
			name = src.Name
		}
		out, err = copyTree(ctx, store, tree, uuid.Nil, name, createdBy)
		return err
	})
	return out, err
}

// Archive snapshots a template tree into archive_templates and deletes the
// live template.
func (s *TemplateService) Archive(ctx context.Context, restaurantID, templateID, archivedBy uuid.UUID) (database.ArchiveTemplate, error) {
	var out database.ArchiveTemplate
	err := s.inTx(ctx, func(store TemplateStore) error {
		src, err := store.GetTemplate(ctx, database.GetTemplateParams{ID: templateID, RestaurantID: restaurantID})
		if err != nil {
			return notFound(err, ErrTemplateNotFound, "get template")
		}
		tree, err := loadTree(ctx, store, src)
		if err != nil {
			return err
		}
		snapshot, err := json.Marshal(tree)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}

		out, err = store.CreateArchive(ctx, database.CreateArchiveParams{
			OriginalTemplateID: src.ID,
			RestaurantID:       restaurantID,
			Name:               src.Name,
			Snapshot:           snapshot,
			ArchivedBy:         database.UUID(archivedBy),
		})
		if err != nil {
			return fmt.Errorf("create archive: %w", err)
		}
		if _, err := store.DeleteTemplate(ctx, database.DeleteTemplateParams{ID: src.ID, RestaurantID: restaurantID}); err != nil {
			return fmt.Errorf("delete template: %w", err)
		}
		return nil
	})
	return out, err
}

// Restore rebuilds a template from an archive under new ids and removes the
// archive.
func (s *TemplateService) Restore(ctx context.Context, restaurantID, archiveID, restoredBy uuid.UUID) (database.Template, error) {
	var out database.Template
	err := s.inTx(ctx, func(store TemplateStore) error {
		archive, err := store.GetArchive(ctx, database.GetArchiveParams{ID: archiveID, RestaurantID: restaurantID})
		if err != nil {
			return notFound(err, ErrArchiveNotFound, "get archive")
		}
		var tree TemplateTree
		if err := json.Unmarshal(archive.Snapshot, &tree); err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}

		out, err = copyTree(ctx, store, tree, restaurantID, archive.Name, restoredBy)
		if err != nil {
			return err
		}
		if err := store.DeleteArchive(ctx, database.DeleteArchiveParams{ID: archive.ID, RestaurantID: restaurantID}); err != nil {
			return fmt.Errorf("delete archive: %w", err)
		}
		return nil
	})
	return out, err
}

func (s *TemplateService) inTx(ctx context.Context, fn func(store TemplateStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(s.newStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func loadTree(ctx context.Context, store TemplateStore, tpl database.Template) (TemplateTree, error) {
	tree := TemplateTree{Template: tpl}
	var err error
	if tree.Pages, err = store.ListTemplatePages(ctx, tpl.ID); err != nil {
		return tree, fmt.Errorf("list pages: %w", err)
	}
	if tree.Sections, err = store.ListTemplateSections(ctx, tpl.ID); err != nil {
		return tree, fmt.Errorf("list sections: %w", err)
	}
	if tree.Dishes, err = store.ListTemplateDishes(ctx, tpl.ID); err != nil {
		return tree, fmt.Errorf("list dishes: %w", err)
	}
	if tree.Components, err = store.ListTemplateComponents(ctx, tpl.ID); err != nil {
		return tree, fmt.Errorf("list components: %w", err)
	}
	return tree, nil
}

// copyTree inserts tree under a new template owned by restaurantID, or a
// global one for uuid.Nil. Page and section ids
// are remapped; rows whose parent is missing from the tree are dropped.
// Image and background URLs are copied as-is.
func copyTree(ctx context.Context, store TemplateStore, tree TemplateTree, restaurantID uuid.UUID, name string, createdBy uuid.UUID) (database.Template, error) {
	tpl, err := store.CreateTemplate(ctx, database.CreateTemplateParams{
		RestaurantID: database.UUID(restaurantID),
		Name:         name,
		Description:  tree.Template.Description,
		PageWidth:    tree.Template.PageWidth,
		PageHeight:   tree.Template.PageHeight,
		IsGlobal:     restaurantID == uuid.Nil,
		CreatedBy:    database.UUID(createdBy),
	})
	if err != nil {
		return database.Template{}, fmt.Errorf("create template: %w", err)
	}

	pageIDs := make(map[uuid.UUID]uuid.UUID, len(tree.Pages))
	for _, p := range tree.Pages {
		np, err := store.InsertPage(ctx, database.InsertPageParams{
			TemplateID:    tpl.ID,
			PageIndex:     p.PageIndex,
			BackgroundUrl: p.BackgroundUrl,
		})
		if err != nil {
			return database.Template{}, fmt.Errorf("copy page: %w", err)
		}
		pageIDs[p.ID] = np.ID
	}

	sectionIDs := make(map[uuid.UUID]uuid.UUID, len(tree.Sections))
	for _, sec := range tree.Sections {
		pageID, ok := pageIDs[sec.PageID]
		if !ok {
			continue
		}
		ns, err := store.InsertSection(ctx, database.InsertSectionParams{
			PageID:      pageID,
			Title:       sec.Title,
			Position:    sec.Position,
			ColumnIndex: sec.ColumnIndex,
		})
		if err != nil {
			return database.Template{}, fmt.Errorf("copy section: %w", err)
		}
		sectionIDs[sec.ID] = ns.ID
	}

	for _, d := range tree.Dishes {
		sectionID, ok := sectionIDs[d.SectionID]
		if !ok {
			continue
		}
		_, err := store.InsertDish(ctx, database.InsertDishParams{
			SectionID:   sectionID,
			Name:        d.Name,
			Description: d.Description,
			Price:       d.Price,
			ImageUrl:    d.ImageUrl,
			Position:    d.Position,
			IsVisible:   d.IsVisible,
		})
		if err != nil {
			return database.Template{}, fmt.Errorf("copy dish: %w", err)
		}
	}

	for _, c := range tree.Components {
		pageID, ok := pageIDs[c.PageID]
		if !ok {
			continue
		}
		_, err := store.InsertComponent(ctx, database.InsertComponentParams{
			TemplateID: tpl.ID,
			PageID:     pageID,
			Kind:       c.Kind,
			X:          c.X,
			Y:          c.Y,
			Width:      c.Width,
			Height:     c.Height,
			Props:      c.Props,
		})
		if err != nil {
			return database.Template{}, fmt.Errorf("copy component: %w", err)
		}
	}
	return tpl, nil
}

// notFound maps pgx.ErrNoRows to sentinel and wraps anything else.
func notFound(err, sentinel error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}
