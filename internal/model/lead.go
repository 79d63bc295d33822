package model

import "time"

// Lead is a prospect record owned by a single BDR, mirroring the `leads`
// table. Optional contact attributes are nullable; duplicate detection
// only compares the fields that are present on both sides.
//
// Fields:
//  ID          – primary key identifier.
//  BdrID       – owning BDR (users.id).
//  FullName    – contact person name.
//  Company     – company name (nullable).
//  Email       – contact email (nullable).
//  Phone       – contact phone (nullable).
//  LinkedInURL – LinkedIn profile link (nullable).
//  Title       – job title (nullable).
//  Status      – lead status string (NEW, CONTACTED, QUALIFIED, DEAD).
//  IsActive    – soft-delete flag.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Lead struct {
	ID          uint64    // leads.id
	BdrID       uint64    // leads.bdr_id
	FullName    string    // leads.full_name
	Company     *string   // leads.company (nullable)
	Email       *string   // leads.email (nullable)
	Phone       *string   // leads.phone (nullable)
	LinkedInURL *string   // leads.linkedin_url (nullable)
	Title       *string   // leads.title (nullable)
	Status      string    // leads.status
	IsActive    bool      // leads.is_active
	CreatedAt   time.Time // leads.created_at
	UpdatedAt   time.Time // leads.updated_at
}

// PipelineItem is an opportunity being worked in the sales pipeline,
// mirroring the `pipeline_items` table. A pipeline item may originate from
// a lead but carries its own contact snapshot, so duplicate detection scans
// both tables.
type PipelineItem struct {
	ID          uint64    // pipeline_items.id
	BdrID       uint64    // pipeline_items.bdr_id
	LeadID      *uint64   // pipeline_items.lead_id (nullable)
	ContactName string    // pipeline_items.contact_name
	Company     *string   // pipeline_items.company (nullable)
	Email       *string   // pipeline_items.email (nullable)
	Phone       *string   // pipeline_items.phone (nullable)
	Stage       string    // pipeline_items.stage
	Status      string    // pipeline_items.status
	IsActive    bool      // pipeline_items.is_active
	CreatedAt   time.Time // pipeline_items.created_at
	UpdatedAt   time.Time // pipeline_items.updated_at
}

// Activity is a logged touch point (call, email, meeting) against a lead or
// pipeline item, from the `activities` table. The duplicate matcher uses
// the most recent activity inside a lookback window to weight severity.
type Activity struct {
	ID         uint64    // activities.id
	SourceType string    // activities.source_type ("lead" | "pipeline")
	SourceID   uint64    // activities.source_id
	Kind       string    // activities.kind (CALL, EMAIL, MEETING, NOTE)
	OccurredAt time.Time // activities.occurred_at
}
