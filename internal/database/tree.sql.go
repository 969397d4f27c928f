package database

// Queries over a whole template tree. They are not scoped to a restaurant;
// callers check ownership of the template first.

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listTemplatePages = `SELECT ` + pageColumns + `
FROM pages pg
WHERE pg.template_id = $1
ORDER BY pg.page_index`

func (q *Queries) ListTemplatePages(ctx context.Context, templateID uuid.UUID) ([]Page, error) {
	rows, err := q.db.Query(ctx, listTemplatePages, templateID)
	return collect(rows, err, scanPage)
}

const listTemplateSections = `SELECT ` + sectionColumns + `
FROM sections s
JOIN pages pg ON pg.id = s.page_id
WHERE pg.template_id = $1
ORDER BY pg.page_index, s.column_index, s.position`

func (q *Queries) ListTemplateSections(ctx context.Context, templateID uuid.UUID) ([]Section, error) {
	rows, err := q.db.Query(ctx, listTemplateSections, templateID)
	return collect(rows, err, scanSection)
}

const listTemplateDishes = `SELECT ` + dishColumns + `
FROM menu_dishes d
JOIN sections s ON s.id = d.section_id
JOIN pages pg ON pg.id = s.page_id
WHERE pg.template_id = $1
ORDER BY pg.page_index, s.column_index, s.position, d.position`

func (q *Queries) ListTemplateDishes(ctx context.Context, templateID uuid.UUID) ([]MenuDish, error) {
	rows, err := q.db.Query(ctx, listTemplateDishes, templateID)
	return collect(rows, err, scanDish)
}

const listTemplateComponents = `SELECT ` + componentColumns + `
FROM component_layouts c
WHERE c.template_id = $1
ORDER BY c.created_at`

func (q *Queries) ListTemplateComponents(ctx context.Context, templateID uuid.UUID) ([]ComponentLayout, error) {
	rows, err := q.db.Query(ctx, listTemplateComponents, templateID)
	return collect(rows, err, scanComponent)
}

const insertPage = `INSERT INTO pages AS pg (template_id, page_index, background_url)
VALUES ($1, $2, $3)
RETURNING ` + pageColumns

type InsertPageParams struct {
	TemplateID    uuid.UUID   `json:"template_id"`
	PageIndex     int32       `json:"page_index"`
	BackgroundUrl pgtype.Text `json:"background_url"`
}

func (q *Queries) InsertPage(ctx context.Context, arg InsertPageParams) (Page, error) {
	return scanPage(q.db.QueryRow(ctx, insertPage, arg.TemplateID, arg.PageIndex, arg.BackgroundUrl))
}

const insertSection = `INSERT INTO sections AS s (page_id, title, position, column_index)
VALUES ($1, $2, $3, $4)
RETURNING ` + sectionColumns

type InsertSectionParams struct {
	PageID      uuid.UUID `json:"page_id"`
	Title       string    `json:"title"`
	Position    int32     `json:"position"`
	ColumnIndex int32     `json:"column_index"`
}

func (q *Queries) InsertSection(ctx context.Context, arg InsertSectionParams) (Section, error) {
	return scanSection(q.db.QueryRow(ctx, insertSection, arg.PageID, arg.Title, arg.Position, arg.ColumnIndex))
}

const insertDish = `INSERT INTO menu_dishes AS d (section_id, name, description, price, image_url, position, is_visible)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + dishColumns

type InsertDishParams struct {
	SectionID   uuid.UUID      `json:"section_id"`
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	Price       pgtype.Numeric `json:"price"`
	ImageUrl    pgtype.Text    `json:"image_url"`
	Position    int32          `json:"position"`
	IsVisible   bool           `json:"is_visible"`
}

func (q *Queries) InsertDish(ctx context.Context, arg InsertDishParams) (MenuDish, error) {
	return scanDish(q.db.QueryRow(ctx, insertDish,
		arg.SectionID, arg.Name, arg.Description, arg.Price, arg.ImageUrl, arg.Position, arg.IsVisible,
	))
}

const insertComponent = `INSERT INTO component_layouts AS c (template_id, page_id, kind, x, y, width, height, props)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + componentColumns

type InsertComponentParams struct {
	TemplateID uuid.UUID `json:"template_id"`
	PageID     uuid.UUID `json:"page_id"`
	Kind       string    `json:"kind"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Props      []byte    `json:"props"`
}

func (q *Queries) InsertComponent(ctx context.Context, arg InsertComponentParams) (ComponentLayout, error) {
	return scanComponent(q.db.QueryRow(ctx, insertComponent,
		arg.TemplateID, arg.PageID, arg.Kind, arg.X, arg.Y, arg.Width, arg.Height, arg.Props,
	))
}
