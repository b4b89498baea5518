package domain

import (
	"strings"
)

// FileType identifies one of the fixed extract shapes.
type FileType string

const (
	FileTypeMC         FileType = "MC"
	FileTypeCollection FileType = "COLLECTION"
	FileTypeMB         FileType = "MB"
	FileTypeARDEBT     FileType = "ARDEBT"
	FileTypeMainBill   FileType = "MAINBILL"
	FileTypeSBRS       FileType = "SBRS"
)

// FileTypes lists every supported type in ingestion order.
var FileTypes = []FileType{
	FileTypeMC,
	FileTypeCollection,
	FileTypeMB,
	FileTypeARDEBT,
	FileTypeMainBill,
	FileTypeSBRS,
}

var fileTypeAliases = map[string]FileType{
	"MC":          FileTypeMC,
	"ROSTER":      FileTypeMC,
	"COLLECTION":  FileTypeCollection,
	"COLLECTIONS": FileTypeCollection,
	"MB":          FileTypeMB,
	"PAYMENTS":    FileTypeMB,
	"ARDEBT":      FileTypeARDEBT,
	"RECEIVABLES": FileTypeARDEBT,
	"MAINBILL":    FileTypeMainBill,
	"MAIN_BILLS":  FileTypeMainBill,
	"SBRS":        FileTypeSBRS,
	"READINGS":    FileTypeSBRS,
}

// ParseFileType accepts a file type code or its entity alias, case-insensitively.
func ParseFileType(raw string) (FileType, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	if ft, ok := fileTypeAliases[key]; ok {
		return ft, nil
	}
	return "", ErrUnknownFileType
}

// FileTypeFromName infers the type from a file name prefix such as "MC_202503.xlsx".
func FileTypeFromName(name string) (FileType, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	// longest first so MAINBILL is not read as MB
	for _, ft := range []FileType{FileTypeCollection, FileTypeMainBill, FileTypeARDEBT, FileTypeSBRS, FileTypeMC, FileTypeMB} {
		prefix := string(ft)
		if strings.HasPrefix(upper, prefix+"_") || strings.HasPrefix(upper, prefix+"-") || strings.HasPrefix(upper, prefix+".") {
			return ft, true
		}
	}
	return "", false
}

// WriteMode is how a file type's rows reach the store.
type WriteMode string

const (
	WriteAppend  WriteMode = "append"
	WriteReplace WriteMode = "replace"
)

// ShiftsPeriod reports whether a period detected from the file is moved one
// month forward: roster, payment and receivable extracts describe the month
// before the billing month.
func (f FileType) ShiftsPeriod() bool {
	switch f {
	case FileTypeMC, FileTypeMB, FileTypeARDEBT:
		return true
	default:
		return false
	}
}
