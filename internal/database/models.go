package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Restaurant struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Slug                 string    `json:"slug"`
	SubscriptionOverride bool      `json:"subscription_override"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type RestaurantLocation struct {
	ID           uuid.UUID   `json:"id"`
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	Name         string      `json:"name"`
	Address      pgtype.Text `json:"address"`
	Phone        pgtype.Text `json:"phone"`
	IsDefault    bool        `json:"is_default"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type Profile struct {
	ID               uuid.UUID   `json:"id"`
	RestaurantID     uuid.UUID   `json:"restaurant_id"`
	Email            string      `json:"email"`
	HashedPassword   string      `json:"hashed_password"`
	FullName         string      `json:"full_name"`
	Role             string      `json:"role"`
	StripeCustomerID pgtype.Text `json:"stripe_customer_id"`
	IsActive         bool        `json:"is_active"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type Plan struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	StripePriceID   string         `json:"stripe_price_id"`
	Amount          pgtype.Numeric `json:"amount"`
	Currency        string         `json:"currency"`
	BillingInterval string         `json:"billing_interval"`
	Features        []byte         `json:"features"`
	SortOrder       int32          `json:"sort_order"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type Subscription struct {
	ID                   uuid.UUID          `json:"id"`
	RestaurantID         uuid.UUID          `json:"restaurant_id"`
	ProfileID            pgtype.UUID        `json:"profile_id"`
	PlanID               pgtype.UUID        `json:"plan_id"`
	StripeSubscriptionID string             `json:"stripe_subscription_id"`
	StripeCustomerID     pgtype.Text        `json:"stripe_customer_id"`
	Status               string             `json:"status"`
	IsActive             bool               `json:"is_active"`
	CancelAt             pgtype.Timestamptz `json:"cancel_at"`
	CanceledAt           pgtype.Timestamptz `json:"canceled_at"`
	TrialActivated       bool               `json:"trial_activated"`
	TrialEndDate         pgtype.Timestamptz `json:"trial_end_date"`
	CurrentPeriodEnd     pgtype.Timestamptz `json:"current_period_end"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

type Template struct {
	ID           uuid.UUID   `json:"id"`
	RestaurantID pgtype.UUID `json:"restaurant_id"`
	Name         string      `json:"name"`
	Description  pgtype.Text `json:"description"`
	PageWidth    int32       `json:"page_width"`
	PageHeight   int32       `json:"page_height"`
	IsGlobal     bool        `json:"is_global"`
	CreatedBy    pgtype.UUID `json:"created_by"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type Page struct {
	ID            uuid.UUID   `json:"id"`
	TemplateID    uuid.UUID   `json:"template_id"`
	PageIndex     int32       `json:"page_index"`
	BackgroundUrl pgtype.Text `json:"background_url"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Section struct {
	ID          uuid.UUID `json:"id"`
	PageID      uuid.UUID `json:"page_id"`
	Title       string    `json:"title"`
	Position    int32     `json:"position"`
	ColumnIndex int32     `json:"column_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type MenuDish struct {
	ID          uuid.UUID      `json:"id"`
	SectionID   uuid.UUID      `json:"section_id"`
	Name        string         `json:"name"`
	Description pgtype.Text    `json:"description"`
	Price       pgtype.Numeric `json:"price"`
	ImageUrl    pgtype.Text    `json:"image_url"`
	Position    int32          `json:"position"`
	IsVisible   bool           `json:"is_visible"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ComponentLayout struct {
	ID         uuid.UUID `json:"id"`
	TemplateID uuid.UUID `json:"template_id"`
	PageID     uuid.UUID `json:"page_id"`
	Kind       string    `json:"kind"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	Props      []byte    `json:"props"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ArchiveTemplate struct {
	ID                 uuid.UUID   `json:"id"`
	OriginalTemplateID uuid.UUID   `json:"original_template_id"`
	RestaurantID       uuid.UUID   `json:"restaurant_id"`
	Name               string      `json:"name"`
	Snapshot           []byte      `json:"snapshot"`
	ArchivedBy         pgtype.UUID `json:"archived_by"`
	ArchivedAt         time.Time   `json:"archived_at"`
}
