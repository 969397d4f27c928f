package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/menuboard/api/internal/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTemplateStore is an in-memory TemplateStore with cascading deletes.
type memTemplateStore struct {
	templates  map[uuid.UUID]database.Template
	pages      []database.Page
	sections   []database.Section
	dishes     []database.MenuDish
	components []database.ComponentLayout
	archives   map[uuid.UUID]database.ArchiveTemplate

	insertDishErr error
}

func newMemTemplateStore() *memTemplateStore {
	return &memTemplateStore{
		templates: map[uuid.UUID]database.Template{},
		archives:  map[uuid.UUID]database.ArchiveTemplate{},
	}
}

func (m *memTemplateStore) GetTemplate(ctx context.Context, arg database.GetTemplateParams) (database.Template, error) {
	t, ok := m.templates[arg.ID]
	if !ok || !t.RestaurantID.Valid || uuid.UUID(t.RestaurantID.Bytes) != arg.RestaurantID {
		return database.Template{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memTemplateStore) GetGlobalTemplate(ctx context.Context, id uuid.UUID) (database.Template, error) {
	t, ok := m.templates[id]
	if !ok || !t.IsGlobal {
		return database.Template{}, pgx.ErrNoRows
	}
	return t, nil
}

func (m *memTemplateStore) CreateTemplate(ctx context.Context, arg database.CreateTemplateParams) (database.Template, error) {
	t := database.Template{
		ID:           uuid.New(),
		RestaurantID: arg.RestaurantID,
		Name:         arg.Name,
		Description:  arg.Description,
		PageWidth:    arg.PageWidth,
		PageHeight:   arg.PageHeight,
		IsGlobal:     arg.IsGlobal,
		CreatedBy:    arg.CreatedBy,
	}
	m.templates[t.ID] = t
	return t, nil
}

func (m *memTemplateStore) DeleteTemplate(ctx context.Context, arg database.DeleteTemplateParams) (uuid.UUID, error) {
	if _, err := m.GetTemplate(ctx, database.GetTemplateParams{ID: arg.ID, RestaurantID: arg.RestaurantID}); err != nil {
		return uuid.Nil, err
	}
	delete(m.templates, arg.ID)

	gonePages := map[uuid.UUID]bool{}
	var pages []database.Page
	for _, p := range m.pages {
		if p.TemplateID == arg.ID {
			gonePages[p.ID] = true
			continue
		}
		pages = append(pages, p)
	}
	m.pages = pages

	goneSections := map[uuid.UUID]bool{}
	var sections []database.Section
	for _, s := range m.sections {
		if gonePages[s.PageID] {
			goneSections[s.ID] = true
			continue
		}
		sections = append(sections, s)
	}
	m.sections = sections

	var dishes []database.MenuDish
	for _, d := range m.dishes {
		if !goneSections[d.SectionID] {
			dishes = append(dishes, d)
		}
	}
	m.dishes = dishes

	var components []database.ComponentLayout
	for _, c := range m.components {
		if c.TemplateID != arg.ID {
			components = append(components, c)
		}
	}
	m.components = components
	return arg.ID, nil
}

func (m *memTemplateStore) ListTemplatePages(ctx context.Context, templateID uuid.UUID) ([]database.Page, error) {
	var out []database.Page
	for _, p := range m.pages {
		if p.TemplateID == templateID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memTemplateStore) pageTemplate(pageID uuid.UUID) uuid.UUID {
	for _, p := range m.pages {
		if p.ID == pageID {
			return p.TemplateID
		}
	}
	return uuid.Nil
}

func (m *memTemplateStore) sectionTemplate(sectionID uuid.UUID) uuid.UUID {
	for _, s := range m.sections {
		if s.ID == sectionID {
			return m.pageTemplate(s.PageID)
		}
	}
	return uuid.Nil
}

func (m *memTemplateStore) ListTemplateSections(ctx context.Context, templateID uuid.UUID) ([]database.Section, error) {
	var out []database.Section
	for _, s := range m.sections {
		if m.pageTemplate(s.PageID) == templateID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memTemplateStore) ListTemplateDishes(ctx context.Context, templateID uuid.UUID) ([]database.MenuDish, error) {
	var out []database.MenuDish
	for _, d := range m.dishes {
		if m.sectionTemplate(d.SectionID) == templateID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memTemplateStore) ListTemplateComponents(ctx context.Context, templateID uuid.UUID) ([]database.ComponentLayout, error) {
	var out []database.ComponentLayout
	for _, c := range m.components {
		if c.TemplateID == templateID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memTemplateStore) InsertPage(ctx context.Context, arg database.InsertPageParams) (database.Page, error) {
	p := database.Page{ID: uuid.New(), TemplateID: arg.TemplateID, PageIndex: arg.PageIndex, BackgroundUrl: arg.BackgroundUrl}
	m.pages = append(m.pages, p)
	return p, nil
}

func (m *memTemplateStore) InsertSection(ctx context.Context, arg database.InsertSectionParams) (database.Section, error) {
	s := database.Section{ID: uuid.New(), PageID: arg.PageID, Title: arg.Title, Position: arg.Position, ColumnIndex: arg.ColumnIndex}
	m.sections = append(m.sections, s)
	return s, nil
}

func (m *memTemplateStore) InsertDish(ctx context.Context, arg database.InsertDishParams) (database.MenuDish, error) {
	if m.insertDishErr != nil {
		return database.MenuDish{}, m.insertDishErr
	}
	d := database.MenuDish{
		ID:          uuid.New(),
		SectionID:   arg.SectionID,
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		ImageUrl:    arg.ImageUrl,
		Position:    arg.Position,
		IsVisible:   arg.IsVisible,
	}
	m.dishes = append(m.dishes, d)
	return d, nil
}

func (m *memTemplateStore) InsertComponent(ctx context.Context, arg database.InsertComponentParams) (database.ComponentLayout, error) {
	c := database.ComponentLayout{
		ID:         uuid.New(),
		TemplateID: arg.TemplateID,
		PageID:     arg.PageID,
		Kind:       arg.Kind,
		X:          arg.X,
		Y:          arg.Y,
		Width:      arg.Width,
		Height:     arg.Height,
		Props:      arg.Props,
	}
	m.components = append(m.components, c)
	return c, nil
}

func (m *memTemplateStore) CreateArchive(ctx context.Context, arg database.CreateArchiveParams) (database.ArchiveTemplate, error) {
	a := database.ArchiveTemplate{
		ID:                 uuid.New(),
		OriginalTemplateID: arg.OriginalTemplateID,
		RestaurantID:       arg.RestaurantID,
		Name:               arg.Name,
		Snapshot:           arg.Snapshot,
		ArchivedBy:         arg.ArchivedBy,
	}
	m.archives[a.ID] = a
	return a, nil
}

func (m *memTemplateStore) GetArchive(ctx context.Context, arg database.GetArchiveParams) (database.ArchiveTemplate, error) {
	a, ok := m.archives[arg.ID]
	if !ok || a.RestaurantID != arg.RestaurantID {
		return database.ArchiveTemplate{}, pgx.ErrNoRows
	}
	return a, nil
}

func (m *memTemplateStore) DeleteArchive(ctx context.Context, arg database.DeleteArchiveParams) error {
	delete(m.archives, arg.ID)
	return nil
}

// seedTree stores a template with two pages, three sections, five dishes and
// two components.
func seedTree(m *memTemplateStore, restaurantID uuid.UUID, global bool) database.Template {
	tpl := database.Template{
		ID:         uuid.New(),
		Name:       "Dinner",
		PageWidth:  816,
		PageHeight: 1056,
		IsGlobal:   global,
	}
	if !global {
		tpl.RestaurantID = database.UUID(restaurantID)
	}
	m.templates[tpl.ID] = tpl

	p1 := database.Page{ID: uuid.New(), TemplateID: tpl.ID, PageIndex: 0, BackgroundUrl: database.Text("https://cdn.example.com/bg.png")}
	p2 := database.Page{ID: uuid.New(), TemplateID: tpl.ID, PageIndex: 1}
	m.pages = append(m.pages, p1, p2)

	s1 := database.Section{ID: uuid.New(), PageID: p1.ID, Title: "Starters"}
	s2 := database.Section{ID: uuid.New(), PageID: p1.ID, Title: "Mains", Position: 1}
	s3 := database.Section{ID: uuid.New(), PageID: p2.ID, Title: "Desserts"}
	m.sections = append(m.sections, s1, s2, s3)

	for i, sid := range []uuid.UUID{s1.ID, s1.ID, s2.ID, s2.ID, s3.ID} {
		m.dishes = append(m.dishes, database.MenuDish{
			ID:        uuid.New(),
			SectionID: sid,
			Name:      "Dish",
			Price:     database.DecimalToNumeric(decimal.NewFromInt(int64(10 + i))),
			ImageUrl:  database.Text("https://cdn.example.com/dish.png"),
			Position:  int32(i),
			IsVisible: true,
		})
	}

	m.components = append(m.components,
		database.ComponentLayout{ID: uuid.New(), TemplateID: tpl.ID, PageID: p1.ID, Kind: "LOGO", Width: 100, Height: 40, Props: []byte(`{"src":"logo.png"}`)},
		database.ComponentLayout{ID: uuid.New(), TemplateID: tpl.ID, PageID: p2.ID, Kind: "TEXT", Props: []byte(`{"text":"Enjoy"}`)},
	)
	return tpl
}

func newTemplateTestService(store *memTemplateStore) (*TemplateService, *mockTx) {
	tx := &mockTx{}
	pool := &mockTxBeginner{tx: tx}
	return NewTemplateService(pool, func(db database.DBTX) TemplateStore { return store }), tx
}

func TestDuplicate_RemapsEveryID(t *testing.T) {
	store := newMemTemplateStore()
	rid := uuid.New()
	src := seedTree(store, rid, false)
	svc, tx := newTemplateTestService(store)

	oldPages, _ := store.ListTemplatePages(context.Background(), src.ID)
	oldSections, _ := store.ListTemplateSections(context.Background(), src.ID)

	copyTpl, err := svc.Duplicate(context.Background(), DuplicateRequest{RestaurantID: rid, TemplateID: src.ID, CreatedBy: uuid.New()})
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.NotEqual(t, src.ID, copyTpl.ID)
	assert.Equal(t, "Dinner (Copy)", copyTpl.Name)

	newPages, _ := store.ListTemplatePages(context.Background(), copyTpl.ID)
	newSections, _ := store.ListTemplateSections(context.Background(), copyTpl.ID)
	newDishes, _ := store.ListTemplateDishes(context.Background(), copyTpl.ID)
	newComponents, _ := store.ListTemplateComponents(context.Background(), copyTpl.ID)
	require.Len(t, newPages, 2)
	require.Len(t, newSections, 3)
	assert.Len(t, newDishes, 5)
	assert.Len(t, newComponents, 2)

	old := map[uuid.UUID]bool{}
	for _, p := range oldPages {
		old[p.ID] = true
	}
	for _, s := range oldSections {
		old[s.ID] = true
	}
	for _, p := range newPages {
		assert.False(t, old[p.ID], "page id reused")
	}
	for _, s := range newSections {
		assert.False(t, old[s.ID], "section id reused")
		assert.False(t, old[s.PageID], "section still points at the source page")
	}
	for _, c := range newComponents {
		assert.False(t, old[c.PageID], "component still points at the source page")
	}
	assert.Equal(t, "https://cdn.example.com/bg.png", newPages[0].BackgroundUrl.String)

	// Source untouched.
	srcDishes, _ := store.ListTemplateDishes(context.Background(), src.ID)
	assert.Len(t, srcDishes, 5)
}

func TestDuplicate_CustomName(t *testing.T) {
	store := newMemTemplateStore()
	rid := uuid.New()
	src := seedTree(store, rid, false)
	svc, _ := newTemplateTestService(store)

	copyTpl, err := svc.Duplicate(context.Background(), DuplicateRequest{RestaurantID: rid, TemplateID: src.ID, Name: "Lunch"})
	require.NoError(t, err)
	assert.Equal(t, "Lunch", copyTpl.Name)
}

func TestDuplicate_OtherRestaurant(t *testing.T) {
	store := newMemTemplateStore()
	src := seedTree(store, uuid.New(), false)
	svc, tx := newTemplateTestService(store)

	_, err := svc.Duplicate(context.Background(), DuplicateRequest{RestaurantID: uuid.New(), TemplateID: src.ID})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.False(t, tx.committed)
}

func TestDuplicate_InsertFailureDoesNotCommit(t *testing.T) {
	store := newMemTemplateStore()
	rid := uuid.New()
	src := seedTree(store, rid, false)
	store.insertDishErr = errors.New("boom")
	svc, tx := newTemplateTestService(store)

	_, err := svc.Duplicate(context.Background(), DuplicateRequest{RestaurantID: rid, TemplateID: src.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy dish")
	assert.False(t, tx.committed)
}

func TestDuplicate_BeginError(t *testing.T) {
	store := newMemTemplateStore()
	svc := NewTemplateService(&mockTxBeginner{err: errors.New("no conn")}, func(db database.DBTX) TemplateStore { return store })

	_, err := svc.Duplicate(context.Background(), DuplicateRequest{RestaurantID: uuid.New(), TemplateID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestDuplicate_CommitError(t *testing.T) {
	store := newMemTemplateStore()
	rid := uuid.New()
	src := seedTree(store, rid, false)
	tx := &mockTx{commitErr: errors.New("serialization failure")}
	svc := NewTemplateService(&mockTxBeginner{tx: tx}, func(db database.DBTX) TemplateStore { return store })

	_, err := svc.Duplicate(context.Background(), DuplicateRequest{RestaurantID: rid, TemplateID: src.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit tx")
}

func TestCopyGlobal(t *testing.T) {
	store := newMemTemplateStore()
	src := seedTree(store, uuid.Nil, true)
	svc, _ := newTemplateTestService(store)
	rid := uuid.New()

	tpl, err := svc.CopyGlobal(context.Background(), rid, src.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Dinner", tpl.Name)
	assert.False(t, tpl.IsGlobal)
	assert.Equal(t, rid, uuid.UUID(tpl.RestaurantID.Bytes))

	dishes, _ := store.ListTemplateDishes(context.Background(), tpl.ID)
	assert.Len(t, dishes, 5)
}

func TestCopyGlobal_RejectsRestaurantTemplate(t *testing.T) {
	store := newMemTemplateStore()
	src := seedTree(store, uuid.New(), false)
	svc, _ := newTemplateTestService(store)

	_, err := svc.CopyGlobal(context.Background(), uuid.New(), src.ID, uuid.New())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestPublish(t *testing.T) {
	store := newMemTemplateStore()
	rid := uuid.New()
	src := seedTree(store, rid, false)
	svc, tx := newTemplateTestService(store)

	tpl, err := svc.Publish(context.Background(), rid, src.ID, "", uuid.New())
	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.True(t, tpl.IsGlobal)
	assert.False(t, tpl.RestaurantID.Valid)
	assert.Equal(t, "Dinner", tpl.Name)

	global, err := store.GetGlobalTemplate(context.Background(), tpl.ID)
	require.NoError(t, err)
	sections, _ := store.ListTemplateSections(context.Background(), global.ID)
	assert.Len(t, sections, 3)

	// The source stays in place.
	_, err = store.GetTemplate(context.Background(), database.GetTemplateParams{ID: src.ID, RestaurantID: rid})
	assert.NoError(t, err)
}

func TestPublish_OtherRestaurant(t *testing.T) {
	store := newMemTemplateStore()
	src := seedTree(store, uuid.New(), false)
	svc, _ := newTemplateTestService(store)

	_, err := svc.Publish(context.Background(), uuid.New(), src.ID, "Library", uuid.New())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestArchiveRestore_RoundTrip(t *testing.T) {
	store := newMemTemplateStore()
	rid := uuid.New()
	src := seedTree(store, rid, false)
	svc, _ := newTemplateTestService(store)
	ctx := context.Background()

	archive, err := svc.Archive(ctx, rid, src.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, src.ID, archive.OriginalTemplateID)
	assert.Equal(t, "Dinner", archive.Name)

	_, err = store.GetTemplate(ctx, database.GetTemplateParams{ID: src.ID, RestaurantID: rid})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Empty(t, store.pages)
	assert.Empty(t, store.dishes)

	restored, err := svc.Restore(ctx, rid, archive.ID, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "Dinner", restored.Name)
	assert.NotEqual(t, src.ID, restored.ID)

	pages, _ := store.ListTemplatePages(ctx, restored.ID)
	sections, _ := store.ListTemplateSections(ctx, restored.ID)
	dishes, _ := store.ListTemplateDishes(ctx, restored.ID)
	components, _ := store.ListTemplateComponents(ctx, restored.ID)
	assert.Len(t, pages, 2)
	assert.Len(t, sections, 3)
	assert.Len(t, dishes, 5)
	assert.Len(t, components, 2)
	assert.JSONEq(t, `{"src":"logo.png"}`, string(components[0].Props))
	assert.True(t, database.NumericToDecimal(dishes[0].Price).Equal(decimal.NewFromInt(10)))

	assert.Empty(t, store.archives)
}

func TestArchive_NotFound(t *testing.T) {
	svc, _ := newTemplateTestService(newMemTemplateStore())
	_, err := svc.Archive(context.Background(), uuid.New(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRestore_NotFound(t *testing.T) {
	svc, _ := newTemplateTestService(newMemTemplateStore())
	_, err := svc.Restore(context.Background(), uuid.New(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrArchiveNotFound)
}

func TestRestore_CorruptSnapshot(t *testing.T) {
	store := newMemTemplateStore()
	rid := uuid.New()
	a, _ := store.CreateArchive(context.Background(), database.CreateArchiveParams{
		RestaurantID: rid,
		Name:         "Broken",
		Snapshot:     []byte(`{"pages": 7}`),
	})
	svc, tx := newTemplateTestService(store)

	_, err := svc.Restore(context.Background(), rid, a.ID, uuid.New())
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
	assert.False(t, tx.committed)
	assert.Len(t, store.archives, 1)
}
