package handler_test

import (
	"context"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/handler"
)

// mockTreeStore holds one restaurant's template tree. Every lookup walks up
// to the template to check ownership, like the scoped queries do.
type mockTreeStore struct {
	templateOwner map[uuid.UUID]uuid.UUID
	pages         map[uuid.UUID]database.Page
	sections      map[uuid.UUID]database.Section
	dishes        map[uuid.UUID]database.MenuDish
	components    map[uuid.UUID]database.ComponentLayout
}

func newMockTreeStore() *mockTreeStore {
	return &mockTreeStore{
		templateOwner: make(map[uuid.UUID]uuid.UUID),
		pages:         make(map[uuid.UUID]database.Page),
		sections:      make(map[uuid.UUID]database.Section),
		dishes:        make(map[uuid.UUID]database.MenuDish),
		components:    make(map[uuid.UUID]database.ComponentLayout),
	}
}

func (m *mockTreeStore) addTemplate(restaurantID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.templateOwner[id] = restaurantID
	return id
}

func (m *mockTreeStore) addPage(templateID uuid.UUID, index int32) database.Page {
	p := database.Page{ID: uuid.New(), TemplateID: templateID, PageIndex: index, CreatedAt: time.Now()}
	m.pages[p.ID] = p
	return p
}

func (m *mockTreeStore) addSection(pageID uuid.UUID, title string) database.Section {
	s := database.Section{ID: uuid.New(), PageID: pageID, Title: title, CreatedAt: time.Now()}
	m.sections[s.ID] = s
	return s
}

func (m *mockTreeStore) templateOwned(templateID, restaurantID uuid.UUID) bool {
	owner, ok := m.templateOwner[templateID]
	return ok && owner == restaurantID
}

func (m *mockTreeStore) pageOwned(pageID, restaurantID uuid.UUID) (database.Page, bool) {
	p, ok := m.pages[pageID]
	if !ok || !m.templateOwned(p.TemplateID, restaurantID) {
		return database.Page{}, false
	}
	return p, true
}

func (m *mockTreeStore) sectionOwned(sectionID, restaurantID uuid.UUID) bool {
	s, ok := m.sections[sectionID]
	if !ok {
		return false
	}
	_, ok = m.pageOwned(s.PageID, restaurantID)
	return ok
}

// pages

func (m *mockTreeStore) ListPagesByTemplate(_ context.Context, arg database.ListPagesByTemplateParams) ([]database.Page, error) {
	var result []database.Page
	if !m.templateOwned(arg.TemplateID, arg.RestaurantID) {
		return result, nil
	}
	for _, p := range m.pages {
		if p.TemplateID == arg.TemplateID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PageIndex < result[j].PageIndex })
	return result, nil
}

func (m *mockTreeStore) CreatePage(_ context.Context, arg database.CreatePageParams) (database.Page, error) {
	if !m.templateOwned(arg.TemplateID, arg.RestaurantID) {
		return database.Page{}, pgx.ErrNoRows
	}
	p := m.addPage(arg.TemplateID, arg.PageIndex)
	p.BackgroundUrl = arg.BackgroundUrl
	m.pages[p.ID] = p
	return p, nil
}

func (m *mockTreeStore) UpdatePage(_ context.Context, arg database.UpdatePageParams) (database.Page, error) {
	p, ok := m.pageOwned(arg.ID, arg.RestaurantID)
	if !ok || p.TemplateID != arg.TemplateID {
		return database.Page{}, pgx.ErrNoRows
	}
	p.PageIndex = arg.PageIndex
	p.BackgroundUrl = arg.BackgroundUrl
	m.pages[p.ID] = p
	return p, nil
}

func (m *mockTreeStore) DeletePage(_ context.Context, arg database.DeletePageParams) (uuid.UUID, error) {
	if p, ok := m.pageOwned(arg.ID, arg.RestaurantID); !ok || p.TemplateID != arg.TemplateID {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.pages, arg.ID)
	return arg.ID, nil
}

// sections

func (m *mockTreeStore) ListSectionsByPage(_ context.Context, arg database.ListSectionsByPageParams) ([]database.Section, error) {
	var result []database.Section
	if _, ok := m.pageOwned(arg.PageID, arg.RestaurantID); !ok {
		return result, nil
	}
	for _, s := range m.sections {
		if s.PageID == arg.PageID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockTreeStore) CreateSection(_ context.Context, arg database.CreateSectionParams) (database.Section, error) {
	if _, ok := m.pageOwned(arg.PageID, arg.RestaurantID); !ok {
		return database.Section{}, pgx.ErrNoRows
	}
	s := m.addSection(arg.PageID, arg.Title)
	s.Position = arg.Position
	s.ColumnIndex = arg.ColumnIndex
	m.sections[s.ID] = s
	return s, nil
}

func (m *mockTreeStore) UpdateSection(_ context.Context, arg database.UpdateSectionParams) (database.Section, error) {
	if !m.sectionOwned(arg.ID, arg.RestaurantID) || m.sections[arg.ID].PageID != arg.PageID {
		return database.Section{}, pgx.ErrNoRows
	}
	s := m.sections[arg.ID]
	s.Title = arg.Title
	s.Position = arg.Position
	s.ColumnIndex = arg.ColumnIndex
	m.sections[s.ID] = s
	return s, nil
}

func (m *mockTreeStore) DeleteSection(_ context.Context, arg database.DeleteSectionParams) (uuid.UUID, error) {
	if !m.sectionOwned(arg.ID, arg.RestaurantID) || m.sections[arg.ID].PageID != arg.PageID {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.sections, arg.ID)
	return arg.ID, nil
}

// dishes

func (m *mockTreeStore) ListDishesBySection(_ context.Context, arg database.ListDishesBySectionParams) ([]database.MenuDish, error) {
	var result []database.MenuDish
	if !m.sectionOwned(arg.SectionID, arg.RestaurantID) {
		return result, nil
	}
	for _, d := range m.dishes {
		if d.SectionID == arg.SectionID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (m *mockTreeStore) CreateDish(_ context.Context, arg database.CreateDishParams) (database.MenuDish, error) {
	if !m.sectionOwned(arg.SectionID, arg.RestaurantID) {
		return database.MenuDish{}, pgx.ErrNoRows
	}
	d := database.MenuDish{
		ID: uuid.New(), SectionID: arg.SectionID, Name: arg.Name, Description: arg.Description,
		Price: arg.Price, ImageUrl: arg.ImageUrl, Position: arg.Position, IsVisible: arg.IsVisible,
		CreatedAt: time.Now(),
	}
	m.dishes[d.ID] = d
	return d, nil
}

func (m *mockTreeStore) UpdateDish(_ context.Context, arg database.UpdateDishParams) (database.MenuDish, error) {
	d, ok := m.dishes[arg.ID]
	if !ok || d.SectionID != arg.SectionID || !m.sectionOwned(d.SectionID, arg.RestaurantID) {
		return database.MenuDish{}, pgx.ErrNoRows
	}
	d.Name = arg.Name
	d.Description = arg.Description
	d.Price = arg.Price
	d.ImageUrl = arg.ImageUrl
	d.Position = arg.Position
	d.IsVisible = arg.IsVisible
	m.dishes[d.ID] = d
	return d, nil
}

func (m *mockTreeStore) DeleteDish(_ context.Context, arg database.DeleteDishParams) (uuid.UUID, error) {
	d, ok := m.dishes[arg.ID]
	if !ok || d.SectionID != arg.SectionID || !m.sectionOwned(d.SectionID, arg.RestaurantID) {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.dishes, arg.ID)
	return arg.ID, nil
}

// components

func (m *mockTreeStore) ListComponentsByPage(_ context.Context, arg database.ListComponentsByPageParams) ([]database.ComponentLayout, error) {
	var result []database.ComponentLayout
	if _, ok := m.pageOwned(arg.PageID, arg.RestaurantID); !ok {
		return result, nil
	}
	for _, c := range m.components {
		if c.PageID == arg.PageID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockTreeStore) CreateComponent(_ context.Context, arg database.CreateComponentParams) (database.ComponentLayout, error) {
	p, ok := m.pageOwned(arg.PageID, arg.RestaurantID)
	if !ok {
		return database.ComponentLayout{}, pgx.ErrNoRows
	}
	c := database.ComponentLayout{
		ID: uuid.New(), TemplateID: p.TemplateID, PageID: p.ID, Kind: arg.Kind,
		X: arg.X, Y: arg.Y, Width: arg.Width, Height: arg.Height, Props: arg.Props,
		CreatedAt: time.Now(),
	}
	m.components[c.ID] = c
	return c, nil
}

func (m *mockTreeStore) UpdateComponent(_ context.Context, arg database.UpdateComponentParams) (database.ComponentLayout, error) {
	c, ok := m.components[arg.ID]
	if !ok || c.PageID != arg.PageID {
		return database.ComponentLayout{}, pgx.ErrNoRows
	}
	if _, ok := m.pageOwned(c.PageID, arg.RestaurantID); !ok {
		return database.ComponentLayout{}, pgx.ErrNoRows
	}
	c.Kind = arg.Kind
	c.X, c.Y, c.Width, c.Height = arg.X, arg.Y, arg.Width, arg.Height
	c.Props = arg.Props
	m.components[c.ID] = c
	return c, nil
}

func (m *mockTreeStore) DeleteComponent(_ context.Context, arg database.DeleteComponentParams) (uuid.UUID, error) {
	c, ok := m.components[arg.ID]
	if !ok || c.PageID != arg.PageID {
		return uuid.Nil, pgx.ErrNoRows
	}
	if _, ok := m.pageOwned(c.PageID, arg.RestaurantID); !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	delete(m.components, arg.ID)
	return arg.ID, nil
}

// --- Helpers ---

func setupTreeRouter(store *mockTreeStore) *chi.Mux {
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}", func(r chi.Router) {
		r.Route("/templates/{tid}/pages", handler.NewPageHandler(store).RegisterRoutes)
		r.Route("/pages/{pid}/sections", handler.NewSectionHandler(store).RegisterRoutes)
		r.Route("/pages/{pid}/components", handler.NewComponentHandler(store).RegisterRoutes)
		r.Route("/sections/{sid}/dishes", handler.NewDishHandler(store).RegisterRoutes)
	})
	return r
}

func restaurantPath(restaurantID uuid.UUID) string {
	return "/restaurants/" + restaurantID.String()
}

// --- Page tests ---

func TestPageCRUD(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	tid := store.addTemplate(rid)
	router := setupTreeRouter(store)
	base := restaurantPath(rid) + "/templates/" + tid.String() + "/pages"

	rr := doRequest(t, router, "POST", base, map[string]interface{}{"page_index": 1, "background_url": "https://img.test/bg.png"})
	expectStatus(t, rr, http.StatusCreated)
	created := decodeObject(t, rr)
	if created["background_url"] != "https://img.test/bg.png" {
		t.Errorf("background_url: got %v", created["background_url"])
	}
	pid, _ := created["id"].(string)

	store.addPage(tid, 0)
	rr = doRequest(t, router, "GET", base, nil)
	expectStatus(t, rr, http.StatusOK)
	list := decodeList(t, rr)
	if len(list) != 2 || list[0]["page_index"] != float64(0) {
		t.Errorf("pages must be ordered by page_index: %v", list)
	}

	rr = doRequest(t, router, "PUT", base+"/"+pid, map[string]interface{}{"page_index": 3})
	expectStatus(t, rr, http.StatusOK)
	if resp := decodeObject(t, rr); resp["background_url"] != nil {
		t.Errorf("background_url should be cleared: %v", resp["background_url"])
	}

	rr = doRequest(t, router, "DELETE", base+"/"+pid, nil)
	expectStatus(t, rr, http.StatusNoContent)
}

func TestPageCreate_OtherRestaurantTemplate(t *testing.T) {
	store := newMockTreeStore()
	tid := store.addTemplate(uuid.New())

	rr := doRequest(t, setupTreeRouter(store), "POST",
		restaurantPath(uuid.New())+"/templates/"+tid.String()+"/pages", map[string]interface{}{"page_index": 0})
	expectStatus(t, rr, http.StatusNotFound)
}

func TestPageCreate_NegativeIndex(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	tid := store.addTemplate(rid)

	rr := doRequest(t, setupTreeRouter(store), "POST",
		restaurantPath(rid)+"/templates/"+tid.String()+"/pages", map[string]interface{}{"page_index": -1})
	expectStatus(t, rr, http.StatusBadRequest)
}

// --- Section tests ---

func TestSectionCRUD(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	page := store.addPage(store.addTemplate(rid), 0)
	router := setupTreeRouter(store)
	base := restaurantPath(rid) + "/pages/" + page.ID.String() + "/sections"

	rr := doRequest(t, router, "POST", base, map[string]interface{}{"title": "Desserts", "position": 2, "column_index": 1})
	expectStatus(t, rr, http.StatusCreated)
	sid, _ := decodeObject(t, rr)["id"].(string)

	rr = doRequest(t, router, "GET", base, nil)
	expectStatus(t, rr, http.StatusOK)
	if list := decodeList(t, rr); len(list) != 1 {
		t.Fatalf("expected 1 section, got %d", len(list))
	}

	rr = doRequest(t, router, "PUT", base+"/"+sid, map[string]interface{}{"title": "Sweets"})
	expectStatus(t, rr, http.StatusOK)
	if resp := decodeObject(t, rr); resp["title"] != "Sweets" {
		t.Errorf("title: got %v", resp["title"])
	}

	rr = doRequest(t, router, "DELETE", base+"/"+sid, nil)
	expectStatus(t, rr, http.StatusNoContent)
}

func TestSectionCreate_Validation(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	page := store.addPage(store.addTemplate(rid), 0)
	base := restaurantPath(rid) + "/pages/" + page.ID.String() + "/sections"
	router := setupTreeRouter(store)

	rr := doRequest(t, router, "POST", base, map[string]interface{}{"position": 1})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = doRequest(t, router, "POST", base, map[string]interface{}{"title": "X", "column_index": -1})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestSectionCreate_PageNotFound(t *testing.T) {
	rr := doRequest(t, setupTreeRouter(newMockTreeStore()), "POST",
		restaurantPath(uuid.New())+"/pages/"+uuid.New().String()+"/sections", map[string]interface{}{"title": "X"})
	expectStatus(t, rr, http.StatusNotFound)
}

// --- Dish tests ---

func TestDishCreate(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	section := store.addSection(store.addPage(store.addTemplate(rid), 0).ID, "Mains")
	base := restaurantPath(rid) + "/sections/" + section.ID.String() + "/dishes"

	rr := doRequest(t, setupTreeRouter(store), "POST", base, map[string]interface{}{
		"name":  "Ribeye",
		"price": "32.5",
	})
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeObject(t, rr)
	if resp["price"] != "32.50" {
		t.Errorf("price: got %v, want 32.50", resp["price"])
	}
	if resp["is_visible"] != true {
		t.Errorf("is_visible: got %v, want true by default", resp["is_visible"])
	}
}

func TestDishCreate_Hidden(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	section := store.addSection(store.addPage(store.addTemplate(rid), 0).ID, "Mains")

	rr := doRequest(t, setupTreeRouter(store), "POST", restaurantPath(rid)+"/sections/"+section.ID.String()+"/dishes",
		map[string]interface{}{"name": "Off-menu", "is_visible": false})
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeObject(t, rr)
	if resp["is_visible"] != false {
		t.Errorf("is_visible: got %v", resp["is_visible"])
	}
	if resp["price"] != "0.00" {
		t.Errorf("empty price must be free, got %v", resp["price"])
	}
}

func TestDishCreate_InvalidPrice(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	section := store.addSection(store.addPage(store.addTemplate(rid), 0).ID, "Mains")
	base := restaurantPath(rid) + "/sections/" + section.ID.String() + "/dishes"
	router := setupTreeRouter(store)

	for _, price := range []string{"abc", "-1.00"} {
		rr := doRequest(t, router, "POST", base, map[string]interface{}{"name": "X", "price": price})
		expectStatus(t, rr, http.StatusBadRequest)
	}
}

func TestDishUpdateAndDelete_OtherRestaurant(t *testing.T) {
	store := newMockTreeStore()
	owner := uuid.New()
	section := store.addSection(store.addPage(store.addTemplate(owner), 0).ID, "Mains")
	dish := database.MenuDish{ID: uuid.New(), SectionID: section.ID, Name: "Soup", IsVisible: true}
	store.dishes[dish.ID] = dish
	router := setupTreeRouter(store)
	intruder := restaurantPath(uuid.New()) + "/sections/" + section.ID.String() + "/dishes/" + dish.ID.String()

	rr := doRequest(t, router, "PUT", intruder, map[string]interface{}{"name": "Hacked"})
	expectStatus(t, rr, http.StatusNotFound)

	rr = doRequest(t, router, "DELETE", intruder, nil)
	expectStatus(t, rr, http.StatusNotFound)

	if store.dishes[dish.ID].Name != "Soup" {
		t.Error("dish must be untouched")
	}
}

// --- Component tests ---

func TestComponentCreate(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	tid := store.addTemplate(rid)
	page := store.addPage(tid, 0)
	base := restaurantPath(rid) + "/pages/" + page.ID.String() + "/components"

	rr := doRequest(t, setupTreeRouter(store), "POST", base, map[string]interface{}{
		"kind": "TEXT", "x": 10, "y": 20, "width": 200, "height": 40,
		"props": map[string]interface{}{"text": "Welcome"},
	})
	expectStatus(t, rr, http.StatusCreated)

	resp := decodeObject(t, rr)
	if resp["template_id"] != tid.String() {
		t.Errorf("template_id: got %v, want %s", resp["template_id"], tid)
	}
	props, _ := resp["props"].(map[string]interface{})
	if props["text"] != "Welcome" {
		t.Errorf("props: got %v", resp["props"])
	}
}

func TestComponentCreate_DefaultsProps(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	page := store.addPage(store.addTemplate(rid), 0)

	rr := doRequest(t, setupTreeRouter(store), "POST", restaurantPath(rid)+"/pages/"+page.ID.String()+"/components",
		map[string]interface{}{"kind": "SHAPE"})
	expectStatus(t, rr, http.StatusCreated)

	if props, ok := decodeObject(t, rr)["props"].(map[string]interface{}); !ok || len(props) != 0 {
		t.Errorf("props must default to {}")
	}
}

func TestComponentCreate_Validation(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	page := store.addPage(store.addTemplate(rid), 0)
	base := restaurantPath(rid) + "/pages/" + page.ID.String() + "/components"
	router := setupTreeRouter(store)

	rr := doRequest(t, router, "POST", base, map[string]interface{}{"kind": "VIDEO"})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = doRequest(t, router, "POST", base, map[string]interface{}{"kind": "IMAGE", "width": -5})
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestComponentUpdateAndDelete(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	page := store.addPage(store.addTemplate(rid), 0)
	comp := database.ComponentLayout{ID: uuid.New(), TemplateID: page.TemplateID, PageID: page.ID, Kind: "LOGO", Props: []byte(`{}`)}
	store.components[comp.ID] = comp
	base := restaurantPath(rid) + "/pages/" + page.ID.String() + "/components/" + comp.ID.String()
	router := setupTreeRouter(store)

	rr := doRequest(t, router, "PUT", base, map[string]interface{}{"kind": "LOGO", "x": 50, "y": 60, "width": 100, "height": 100})
	expectStatus(t, rr, http.StatusOK)
	if got := store.components[comp.ID]; got.X != 50 || got.Width != 100 {
		t.Errorf("update not applied: %+v", got)
	}

	rr = doRequest(t, router, "DELETE", base, nil)
	expectStatus(t, rr, http.StatusNoContent)
	if _, ok := store.components[comp.ID]; ok {
		t.Error("expected component to be deleted")
	}
}

// --- Parent scoping ---

func TestTreeMutations_WrongParent(t *testing.T) {
	store := newMockTreeStore()
	rid := uuid.New()
	tplA := store.addTemplate(rid)
	tplB := store.addTemplate(rid)
	pageA := store.addPage(tplA, 0)
	pageB := store.addPage(tplB, 0)
	sectionA := store.addSection(pageA.ID, "Starters")
	sectionB := store.addSection(pageB.ID, "Mains")
	dish := database.MenuDish{ID: uuid.New(), SectionID: sectionB.ID, Name: "Steak", IsVisible: true}
	store.dishes[dish.ID] = dish
	comp := database.ComponentLayout{ID: uuid.New(), TemplateID: tplB, PageID: pageB.ID, Kind: "TEXT", Props: []byte(`{}`)}
	store.components[comp.ID] = comp
	router := setupTreeRouter(store)
	base := restaurantPath(rid)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"update page under other template", "PUT", "/templates/" + tplA.String() + "/pages/" + pageB.ID.String(), map[string]int{"page_index": 4}},
		{"delete page under other template", "DELETE", "/templates/" + tplA.String() + "/pages/" + pageB.ID.String(), nil},
		{"update section under other page", "PUT", "/pages/" + pageA.ID.String() + "/sections/" + sectionB.ID.String(), map[string]string{"title": "Moved"}},
		{"delete section under other page", "DELETE", "/pages/" + pageA.ID.String() + "/sections/" + sectionB.ID.String(), nil},
		{"update dish under other section", "PUT", "/sections/" + sectionA.ID.String() + "/dishes/" + dish.ID.String(), map[string]string{"name": "Moved"}},
		{"delete dish under other section", "DELETE", "/sections/" + sectionA.ID.String() + "/dishes/" + dish.ID.String(), nil},
		{"update component under other page", "PUT", "/pages/" + pageA.ID.String() + "/components/" + comp.ID.String(), map[string]string{"kind": "TEXT"}},
		{"delete component under other page", "DELETE", "/pages/" + pageA.ID.String() + "/components/" + comp.ID.String(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(t, router, tt.method, base+tt.path, tt.body)
			expectStatus(t, rr, http.StatusNotFound)
		})
	}

	if store.pages[pageB.ID].PageIndex != 0 {
		t.Error("page must be untouched")
	}
	if store.sections[sectionB.ID].Title != "Mains" {
		t.Error("section must be untouched")
	}
	if store.dishes[dish.ID].Name != "Steak" {
		t.Error("dish must be untouched")
	}
	if _, ok := store.components[comp.ID]; !ok {
		t.Error("component must not be deleted")
	}
}
