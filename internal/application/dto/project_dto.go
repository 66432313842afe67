package dto

import "time"

// CreateProjectRequest entrada para crear una obra (los archivos llegan aparte, multipart).
type CreateProjectRequest struct {
	Name          string `json:"name" form:"name"`
	Description   string `json:"description" form:"description"`
	StartDate     string `json:"start_date" form:"start_date"`           // YYYY-MM-DD
	TargetEndDate string `json:"target_end_date" form:"target_end_date"` // opcional
}

// ChangeProjectStatusRequest body para PATCH /api/projects/:id/status.
type ChangeProjectStatusRequest struct {
	Status string `json:"status"`
}

// AddProjectLogRequest body para POST /api/projects/:id/logs.
type AddProjectLogRequest struct {
	Entry string `json:"entry"`
}

// ProjectFileResponse adjunto de obra.
type ProjectFileResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	URL         string    `json:"url"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectLogResponse entrada de bitácora.
type ProjectLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Entry     string    `json:"entry"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectResponse salida de una obra.
type ProjectResponse struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	StartDate     string                `json:"start_date"`
	TargetEndDate string                `json:"target_end_date,omitempty"`
	Status        string                `json:"status"`
	CreatedBy     string                `json:"created_by"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Files         []ProjectFileResponse `json:"files"`
	Logs          []ProjectLogResponse  `json:"logs"`
}

// ProjectListResponse lista paginada de obras.
type ProjectListResponse struct {
	Items []ProjectResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
