package entity

import "time"

// Estados de una obra.
const (
	ProjectStatusInProgress = "in_progress"
	ProjectStatusFinished   = "finished"
)

// Límites de adjuntos al crear una obra.
const (
	ProjectMinFilesOnCreate = 1
	ProjectMaxFilesOnCreate = 3
)

// ValidProjectStatus informa si status es un estado de obra soportado.
func ValidProjectStatus(status string) bool {
	return status == ProjectStatusInProgress || status == ProjectStatusFinished
}

// Project representa una obra en seguimiento.
// El estado cambia libremente entre in_progress y finished; archivos y bitácora
// se agregan sin importar el estado.
type Project struct {
	ID            string
	Name          string
	Description   string
	StartDate     time.Time
	TargetEndDate *time.Time
	Status        string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Files         []ProjectFile
	Logs          []ProjectLog
}

// ProjectFile adjunto de una obra guardado en el almacenamiento de objetos.
type ProjectFile struct {
	ID          string
	ProjectID   string
	FileName    string
	ContentType string
	URL         string
	StorageKey  string
	UploadedBy  string
	CreatedAt   time.Time
}

// ProjectLog entrada de bitácora de una obra.
type ProjectLog struct {
	ID        string
	ProjectID string
	UserID    string
	Entry     string
	CreatedAt time.Time
}
