package directory

import (
	"net/url"

	"github.com/Sternrassler/school-directory-crawler/pkg/client"
)

// Request kinds, used as metric and log labels.
const (
	KindSubarea  = "subarea"
	KindList     = "list"
	KindMetadata = "metadata"
	KindDetail   = "detail"
)

func sortedQuery(extra url.Values) url.Values {
	q := url.Values{
		"sortBy":  {"bentuk_pendidikan"},
		"sortDir": {"asc"},
	}
	for k, v := range extra {
		q[k] = v
	}
	return q
}

// SubareaRequest lists the subareas below an area code.
func SubareaRequest(areaCode string) client.Request {
	return client.Request{
		Kind:  KindSubarea,
		Path:  "satuan-pendidikan/statistics/" + url.PathEscape(areaCode) + "/descendants",
		Query: sortedQuery(nil),
	}
}

// SchoolListRequest downloads the CSV school list of a subarea.
func SchoolListRequest(subareaCode string) client.Request {
	return client.Request{
		Kind: KindList,
		Path: "satuan-pendidikan/download",
		Query: sortedQuery(url.Values{
			"kodeKecamatan": {subareaCode},
			"format":        {"csv"},
		}),
	}
}

// MetadataRequest fetches the listing metadata (lastUpdatedAt) of a subarea.
func MetadataRequest(subareaCode string) client.Request {
	return client.Request{
		Kind: KindMetadata,
		Path: "satuan-pendidikan",
		Query: url.Values{
			"kodeKecamatan": {subareaCode},
			"limit":         {"1"},
		},
	}
}

// DetailRequest fetches one school by NPSN.
func DetailRequest(npsn string) client.Request {
	return client.Request{
		Kind: KindDetail,
		Path: "satuan-pendidikan/npsn/" + url.PathEscape(npsn),
	}
}
