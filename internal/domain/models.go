package domain

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StockRecord is the current stock-on-hand position for a single SKU.
// Rows are replaced wholesale by the periodic TXT bulk import and are
// read-only to the classification pipeline.
type StockRecord struct {
	SKU                string          `json:"sku" db:"sku"`
	UPC                string          `json:"upc" db:"upc"`
	ItemClassification sql.NullString  `json:"item_classification" db:"item_classification"`
	Description        string          `json:"description" db:"description"`
	OnHand             int             `json:"on_hand" db:"on_hand"`
	Allocated          sql.NullInt64   `json:"allocated" db:"allocated"`
	Available          sql.NullInt64   `json:"available" db:"available"`
	Cost               decimal.Decimal `json:"cost" db:"cost"`
}

// AvailableQty returns the available quantity with NULL treated as 0.
func (s StockRecord) AvailableQty() int {
	if !s.Available.Valid {
		return 0
	}
	return int(s.Available.Int64)
}

// Classification returns the item classification with NULL treated as UNKNOWN.
func (s StockRecord) Classification() string {
	if !s.ItemClassification.Valid || strings.TrimSpace(s.ItemClassification.String) == "" {
		return UnknownBrand
	}
	return s.ItemClassification.String
}

// MovementRecord is one pre-aggregated in/out line per SKU from the
// movement ("In & Out") report import.
type MovementRecord struct {
	SKU             string `json:"sku" db:"sku"`
	ItemDescription string `json:"item_description" db:"item_description"`
	QtyIn           int    `json:"qty_in" db:"qty_in"`
	QtyOut          int    `json:"qty_out" db:"qty_out"`
	Balance         int    `json:"balance" db:"balance"`
}

// Item is the item master reference used for SKU -> brand resolution.
type Item struct {
	SKU            string          `json:"sku" db:"sku"`
	Description    string          `json:"description" db:"description"`
	Brand          string          `json:"brand" db:"brand"`
	UPC            string          `json:"upc" db:"upc"`
	UnitWeight     decimal.Decimal `json:"unit_weight" db:"unit_weight"`
	Price          decimal.Decimal `json:"price" db:"price"`
	Classification string          `json:"classification" db:"classification"`
	Notes          string          `json:"notes" db:"notes"`
}

// ClassificationSnapshot is one classified SKU for a given report date.
// Unique on (report_date, sku); re-running the classifier for the same
// date overwrites in place.
type ClassificationSnapshot struct {
	ID               int64           `json:"id" db:"id"`
	ReportDate       time.Time       `json:"report_date" db:"report_date"`
	SKU              string          `json:"sku" db:"sku"`
	UPC              string          `json:"upc" db:"upc"`
	Brand            string          `json:"brand" db:"brand"`
	Classification   string          `json:"classification" db:"classification"`
	Description      string          `json:"description" db:"description"`
	QtyIn            int             `json:"qty_in" db:"qty_in"`
	QtyOut           int             `json:"qty_out" db:"qty_out"`
	Balance          int             `json:"balance" db:"balance"`
	Available        int             `json:"available" db:"available"`
	Cost             decimal.Decimal `json:"cost" db:"cost"`
	BeginningBalance int             `json:"beginning_balance" db:"beginning_balance"`
	Reference        int             `json:"reference" db:"reference"`
	Percentage       decimal.Decimal `json:"percentage" db:"percentage"`
	Category         SellerCategory  `json:"category" db:"category"`
}

// SnapshotFilter narrows snapshot queries.
type SnapshotFilter struct {
	ReportDate string         `json:"report_date"`
	Brand      string         `json:"brand"`
	Category   SellerCategory `json:"category"`
}

// OfferType selects the pricing basis for a working set.
type OfferType string

const (
	OfferRegular OfferType = "REGULAR"
	OfferSalon   OfferType = "SALON"
)

// ParseOfferType returns the offer type for a label, defaulting to REGULAR.
func ParseOfferType(s string) OfferType {
	if strings.EqualFold(strings.TrimSpace(s), string(OfferSalon)) {
		return OfferSalon
	}
	return OfferRegular
}

// OfferWorkingRow is one editable line of an operator's working set.
// It lives in the session store only, never in a durable table.
type OfferWorkingRow struct {
	SKU         string          `json:"sku"`
	UPC         string          `json:"upc"`
	Brand       string          `json:"brand"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	Salon       decimal.Decimal `json:"salon"`
	Discount    decimal.Decimal `json:"discount"`
	OfferPrice  decimal.Decimal `json:"offer_price"`
	DisplayQty  int             `json:"display_qty"`
}

// OfferArtifact is the immutable record of a committed offer export.
type OfferArtifact struct {
	ID           int64     `json:"id" db:"id"`
	OfferType    OfferType `json:"offer_type" db:"offer_type"`
	CreatedDate  string    `json:"created_date" db:"created_date"`
	CreatedTime  string    `json:"created_time" db:"created_time"`
	FileName     string    `json:"file_name" db:"file_name"`
	ObjectKey    string    `json:"object_key" db:"object_key"`
	AuthorName   string    `json:"author_name" db:"author_name"`
	AuthorEmail  string    `json:"author_email" db:"author_email"`
	CustomerRank string    `json:"customer_rank" db:"customer_rank"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DefaultCustomerRank tags new artifacts; the observed default segment.
const DefaultCustomerRank = "DIAMOND"

// DeliveryStatus is the outcome of one mail send attempt.
type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "Success"
	DeliveryFailure DeliveryStatus = "Failure"
)

// EmailDeliveryRecord is one append-only audit row per send attempt.
type EmailDeliveryRecord struct {
	ID             int64          `json:"id" db:"id"`
	Recipient      string         `json:"recipient" db:"recipient"`
	CC             string         `json:"cc" db:"cc"`
	BCC            string         `json:"bcc" db:"bcc"`
	Subject        string         `json:"subject" db:"subject"`
	AttachmentName string         `json:"attachment_name" db:"attachment_name"`
	Status         DeliveryStatus `json:"status" db:"status"`
	ErrorDetail    string         `json:"error_detail" db:"error_detail"`
	SentAt         time.Time      `json:"sent_at" db:"sent_at"`
}

// Customer is one row of the customer directory.
type Customer struct {
	CustomerID string `json:"customer_id" db:"customer_id"`
	FirstName  string `json:"first_name" db:"first_name"`
	LastName   string `json:"last_name" db:"last_name"`
	Email      string `json:"email" db:"email"`
	CCEmails   string `json:"cc_emails" db:"cc_emails"`
	BCCEmails  string `json:"bcc_emails" db:"bcc_emails"`
	Categories string `json:"categories" db:"categories"`
	Rank       string `json:"rank" db:"rank"`
	StaffID    string `json:"staff_id" db:"staff_id"`
}

// Name returns the customer's display name.
func (c Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// SplitAddressList splits a stored comma-separated address field.
func SplitAddressList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if addr := strings.TrimSpace(p); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// CustomerFilter narrows customer directory queries for mail segmentation.
type CustomerFilter struct {
	Rank     string `json:"rank"`
	Category string `json:"category"`
}

// StaffMailConfig holds the per-staff SMTP send identity.
type StaffMailConfig struct {
	StaffID   string `json:"staff_id" db:"staff_id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	Host      string `json:"host" db:"host"`
	Port      int    `json:"port" db:"port"`
	UseTLS    bool   `json:"use_tls" db:"use_tls"`
	Username  string `json:"username" db:"username"`
	Password  string `json:"-" db:"password"`
}

// Identity is the authoring operator stamped onto an artifact.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DefaultOrderNotes pre-fills the notes field of a new order; the 3PL
// transaction number replaces it at approval time.
const DefaultOrderNotes = "3pl transaction number"

// OrderLine is one priced line of a submitted order.
type OrderLine struct {
	SKU         string          `json:"sku"`
	UPC         string          `json:"upc"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// Order is one submitted customer order. The priced lines are kept as a
// JSON document next to the customer identity they were captured for.
type Order struct {
	ID                int64           `json:"id" db:"id"`
	OrderID           string          `json:"order_id" db:"order_id"`
	CustomerID        string          `json:"customer_id" db:"customer_id"`
	CustomerEmail     string          `json:"customer_email" db:"customer_email"`
	CustomerFirstName string          `json:"customer_first_name" db:"customer_first_name"`
	CustomerLastName  string          `json:"customer_last_name" db:"customer_last_name"`
	Lines             []OrderLine     `json:"lines" db:"-"`
	TotalQuantity     int             `json:"total_quantity" db:"total_quantity"`
	TotalAmount       decimal.Decimal `json:"total_amount" db:"total_amount"`
	IsApproved        bool            `json:"is_approved" db:"is_approved"`
	Notes             string          `json:"notes" db:"notes"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}

// OrderRequest is an order submission: the buying customer and the
// requested quantity per working-set SKU.
type OrderRequest struct {
	CustomerID string         `json:"customer_id"`
	Quantities map[string]int `json:"quantities"`
}
