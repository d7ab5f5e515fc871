package components

import (
	twmerge "github.com/Oudwins/tailwind-merge-go"
)

type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

// ParseVariant maps form input onto a Variant, defaulting to success.
func ParseVariant(s string) Variant {
	switch s {
	case "error", "destructive":
		return VariantError
	case "warning":
		return VariantWarning
	case "info":
		return VariantInfo
	}
	return VariantSuccess
}

type ToastProps struct {
	ID          string
	Title       string
	Description string
	Variant     Variant
	// Detail lines are rendered as a small definition list under the description.
	Detail      []Field
	Dismissible bool
	Class       string
}

type Field struct {
	Label string
	Value string
}

var variantClasses = map[Variant]string{
	VariantSuccess: "border-green-500 bg-green-50 text-green-900",
	VariantError:   "border-red-500 bg-red-50 text-red-900",
	VariantWarning: "border-amber-500 bg-amber-50 text-amber-900",
	VariantInfo:    "border-blue-500 bg-blue-50 text-blue-900",
}

const toastBaseClass = "pointer-events-auto w-full max-w-sm rounded-lg border border-gray-200 bg-white p-4 shadow-lg text-gray-900"

func (p ToastProps) id() string {
	if p.ID == "" {
		return "toast"
	}
	return p.ID
}

func (p ToastProps) class() string {
	return twmerge.Merge(toastBaseClass, variantClasses[p.Variant], p.Class)
}
