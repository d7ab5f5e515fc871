package pages

import (
	"strconv"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// HomeProps carries the few values the page needs from the server.
type HomeProps struct {
	DefaultSize   int
	DefaultBorder int
}

const (
	inputClass  = "mt-1 block w-full rounded-md border border-gray-300 px-3 py-2 text-sm"
	buttonClass = "inline-flex items-center rounded-md bg-gray-900 px-4 py-2 text-sm font-medium text-white hover:bg-gray-700"
	cardClass   = "rounded-xl border border-gray-200 bg-white p-6 shadow-sm"
)

func (p HomeProps) size() string   { return strconv.Itoa(p.DefaultSize) }
func (p HomeProps) border() string { return strconv.Itoa(p.DefaultBorder) }

func spacedCard() string { return twmerge.Merge(cardClass, "mt-6") }
