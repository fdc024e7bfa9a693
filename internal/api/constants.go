package api

// envelopeVersion is the "v" field of every response body.
const envelopeVersion = 1

// OpenAPI operation groups.
const (
	groupHealth        = "Health"
	groupSearch        = "Search"
	groupIllustrations = "Illustrations"
	groupTags          = "Tags"
	groupPlaces        = "Places"
)

var bearerSecurity = []map[string][]string{{"bearer": {}}}
