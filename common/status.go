package common

//go:generate go run github.com/dmarkham/enumer -json -type ItemStatus -trimprefix ItemStatus

// ItemStatus is the outcome of one downloadable item (visual, metadata or thumbnail) of a scene
type ItemStatus int

const (
	ItemStatusDONE    ItemStatus = iota // the item has been downloaded
	ItemStatusSKIPPED                   // the output file already exists
	ItemStatusMISSING                   // the source url is not available
	ItemStatusFAILED
)
