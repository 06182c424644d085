package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// module description files
	ManInfo             Code = 1000
	ManSyntax           Code = 1001
	ManMissingField     Code = 1002
	ManUnknownKind      Code = 1003
	ManInvalidIdent     Code = 1004
	ManDuplicateName    Code = 1005
	ManInvalidValue     Code = 1006
	ManUnknownKey       Code = 1007
	ManInvalidTypeExpr  Code = 1008
	ManMissingModuleHdr Code = 1009

	// type resolution
	TypInfo                  Code = 2000
	TypUnresolved            Code = 2001
	TypUnsupported           Code = 2002
	TypRecursiveByValue      Code = 2003
	TypGenericArity          Code = 2004
	TypUnsupportedVecElement Code = 2005

	// declaration checks
	SemaInfo              Code = 3000
	SemaReceiverNotOpaque Code = 3001
	SemaAsyncSwiftHosted  Code = 3002
	SemaMutCopyReceiver   Code = 3003
	SemaEmptyEnum         Code = 3004
	SemaDuplicateFunc     Code = 3005
	SemaInitReturn        Code = 3006
	SemaHostMismatch      Code = 3007
	SemaDuplicateVariant  Code = 3008
	SemaDuplicateField    Code = 3009
	SemaCopySizeZero      Code = 3010
	SemaDuplicateType     Code = 3011

	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002

	ProjInfo            Code = 5000
	ProjMissingConfig   Code = 5001
	ProjInvalidConfig   Code = 5002
	ProjNoModules       Code = 5003
	ProjDuplicateModule Code = 5004

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:              "Unknown error",
		ManInfo:                  "Module description information",
		ManSyntax:                "Malformed module description",
		ManMissingField:          "Missing required field",
		ManUnknownKind:           "Unknown declaration kind",
		ManInvalidIdent:          "Invalid identifier",
		ManDuplicateName:         "Duplicate declaration name",
		ManInvalidValue:          "Invalid field value",
		ManUnknownKey:            "Unknown key",
		ManInvalidTypeExpr:       "Malformed type expression",
		ManMissingModuleHdr:      "Missing [module] table",
		TypInfo:                  "Type information",
		TypUnresolved:            "Unresolved type",
		TypUnsupported:           "Unsupported type combination",
		TypRecursiveByValue:      "Shared type contains itself by value",
		TypGenericArity:          "Wrong number of generic arguments",
		TypUnsupportedVecElement: "Unsupported Vec element type",
		SemaInfo:                 "Declaration information",
		SemaReceiverNotOpaque:    "Receiver type is not an opaque type",
		SemaAsyncSwiftHosted:     "Swift-hosted functions cannot be async",
		SemaMutCopyReceiver:      "Copy types cannot take &mut self",
		SemaEmptyEnum:            "Enum has no variants",
		SemaDuplicateFunc:        "Duplicate function",
		SemaInitReturn:           "Initializer must return its owning type",
		SemaHostMismatch:         "Method and type are hosted on different sides",
		SemaDuplicateVariant:     "Duplicate enum variant",
		SemaDuplicateField:       "Duplicate field",
		SemaCopySizeZero:         "Copy type size must be positive",
		SemaDuplicateType:        "Duplicate type declaration",
		IOLoadFileError:          "I/O load file error",
		IOWriteFileError:         "I/O write file error",
		ProjInfo:                 "Project information",
		ProjMissingConfig:        "Missing bridgegen.toml",
		ProjInvalidConfig:        "Invalid project configuration",
		ProjNoModules:            "No module descriptions found",
		ProjDuplicateModule:      "Duplicate module name",
		ObsInfo:                  "Observability information",
		ObsTimings:               "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("MAN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

// Locationless reports codes whose primary span carries no source
// position, such as pipeline timings.
func (c Code) Locationless() bool {
	return c >= ObsInfo && c < 7000
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
