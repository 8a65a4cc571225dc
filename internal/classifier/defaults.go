package classifier

// DefaultEntries returns the built-in service table in match order. Order
// matters: the first matching pattern wins, so more specific entries sit
// before the broader ones they overlap with.
func DefaultEntries() []Entry {
	return []Entry{
		{Name: "capi-v1-article", Pattern: `^https?://api\.ft\.com/content/items/v1/[\w\-]+`},
		{Name: "capi-v1-page", Pattern: `^https?://api\.ft\.com/site/v1/pages/[\w\-]+`},
		{Name: "capi-v1-pages-list", Pattern: `^https?://api\.ft\.com/site/v1/pages`},
		{Name: "sapi", Pattern: `^https?://api\.ft\.com/content/search/v1`},
		{Name: "elastic-v1-article", Pattern: `^https?://[\w\-]+\.foundcluster\.com:9243/v1_api_v2/item`},
		{Name: "elastic-v2-article", Pattern: `^https?://[\w\-]+\.foundcluster\.com:9243/v2_api_v1/item`},
		{Name: "user-prefs", Pattern: `^https?://ft-next-api-user-prefs-v002\.herokuapp\.com`},
		{Name: "flags", Pattern: `^https?://ft-next-api-feature-flags\.herokuapp\.com/__flags\.json`},
		{Name: "capi-v2-article", Pattern: `^https?://api\.ft\.com/content/[\w\-]+`},
		{Name: "capi-v2-enriched-article", Pattern: `^https?://api\.ft\.com/enrichedcontent/[\w\-]+`},
		{Name: "capi-v2-lists", Pattern: `^https?://api\.ft\.com/lists/[\w\-]+`},
		{Name: "capi-v2-thing", Pattern: `^https?://api\.ft\.com/things/[\w\-]+`},
		{Name: "capi-v2-organisation", Pattern: `^https?://api\.ft\.com/organisations/[\w\-]+`},
		{
			Name:    "capi-v2-content-by-concept",
			Pattern: `^https?://api\.ft\.com/content\?isAnnotatedBy=http://api\.ft\.com/things/[\w\-]+`,
		},
		// fastft matches anywhere in the URL.
		{Name: "fastft", Pattern: `https?://clamo\.ftdata\.co\.uk/api`},
		{
			Name:    "v1-to-v2-mapping-people",
			Pattern: `^https://next-v1tov2-mapping-dev\.herokuapp\.com/concordance_mapping_v1tov2/people/[A-Za-z0-9=\-]+$`,
		},
		{
			Name:    "v1-to-v2-mapping-organisations",
			Pattern: `^https://next-v1tov2-mapping-dev\.herokuapp\.com/concordance_mapping_v1tov2/organisations/[A-Za-z0-9=\-]+$`,
		},
		{Name: "ft.com", Pattern: `^http://www\.ft\.com/cms/s/380e7966-b07f-11e4-9b8e-00144feab7de\.html$`},
	}
}
