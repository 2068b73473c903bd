package domain

// LogicalType is a user-facing content category used for display only
type LogicalType string

const (
	LogicalTypeFolder       LogicalType = "FOLDER"
	LogicalTypeApplication  LogicalType = "APPLICATION"
	LogicalTypeDocument     LogicalType = "DOCUMENT"
	LogicalTypeImage        LogicalType = "PHOTO_IMAGE"
	LogicalTypeVideo        LogicalType = "VIDEO"
	LogicalTypeAudio        LogicalType = "AUDIO"
	LogicalTypePDF          LogicalType = "PDF"
	LogicalTypeSpreadsheet  LogicalType = "SPREADSHEET"
	LogicalTypePresentation LogicalType = "PRESENTATION"
	LogicalTypeText         LogicalType = "TEXT"
	LogicalTypeArchive      LogicalType = "ARCHIVE"
	LogicalTypeOther        LogicalType = "OTHER"
)

var logicalTypeNames = map[LogicalType]string{
	LogicalTypeFolder:       "Folder",
	LogicalTypeApplication:  "Application",
	LogicalTypeDocument:     "Document",
	LogicalTypeImage:        "Photo/Image",
	LogicalTypeVideo:        "Video",
	LogicalTypeAudio:        "Audio",
	LogicalTypePDF:          "PDF",
	LogicalTypeSpreadsheet:  "Spreadsheet",
	LogicalTypePresentation: "Presentation",
	LogicalTypeText:         "Text",
	LogicalTypeArchive:      "Archive",
	LogicalTypeOther:        "Other",
}

// DisplayName returns the label shown to users
func (t LogicalType) DisplayName() string {
	if name, ok := logicalTypeNames[t]; ok {
		return name
	}
	return logicalTypeNames[LogicalTypeOther]
}

// LogicalTypeInfo pairs a logical type with its display name
type LogicalTypeInfo struct {
	Name        LogicalType `json:"name"`
	DisplayName string      `json:"displayName"`
}

// LogicalTypes returns the fixed enumeration in display order
func LogicalTypes() []LogicalTypeInfo {
	order := []LogicalType{
		LogicalTypeFolder, LogicalTypeApplication, LogicalTypeDocument, LogicalTypeImage,
		LogicalTypeVideo, LogicalTypeAudio, LogicalTypePDF, LogicalTypeSpreadsheet,
		LogicalTypePresentation, LogicalTypeText, LogicalTypeArchive, LogicalTypeOther,
	}
	infos := make([]LogicalTypeInfo, 0, len(order))
	for _, t := range order {
		infos = append(infos, LogicalTypeInfo{Name: t, DisplayName: t.DisplayName()})
	}
	return infos
}
