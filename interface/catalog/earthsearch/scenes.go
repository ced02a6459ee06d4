package earthsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	neturl "net/url"
	"strings"
	"time"

	"github.com/geoforge/s2fetch/common"
	"github.com/geoforge/s2fetch/fetcher/entities"
	"github.com/geoforge/s2fetch/service"
	"github.com/geoforge/s2fetch/service/log"
)

const (
	// EarthSearchURL is the search endpoint of the element84 earth-search catalog
	EarthSearchURL = "https://earth-search.aws.element84.com/v1/search"
	// CollectionSentinel2L2A is the atmospherically corrected Sentinel-2 collection
	CollectionSentinel2L2A = "sentinel-2-l2a"

	pageLimit = 50
)

// RequestError is returned when the catalog cannot be reached (network failure, retries exhausted)
type RequestError struct {
	URL string
	Err error
}

func (e RequestError) Error() string {
	return fmt.Sprintf("catalog request failed [%s]: %v", e.URL, e.Err)
}

func (e RequestError) Unwrap() error { return e.Err }

// Provider implements catalog.ScenesProvider against a STAC search endpoint
type Provider struct {
	URL     string
	Session *service.Session
}

// NewProvider creates a STAC scenes provider. url defaults to the earth-search endpoint.
func NewProvider(url string, session *service.Session) *Provider {
	if url == "" {
		url = EarthSearchURL
	}
	return &Provider{URL: url, Session: session}
}

type stacLink struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

type stacAsset struct {
	Href string `json:"href"`
}

type stacFeature struct {
	ID         string    `json:"id"`
	BBox       []float64 `json:"bbox"`
	Properties struct {
		Datetime   string  `json:"datetime"`
		ProductURI string  `json:"s2:product_uri"`
		CloudCover float64 `json:"eo:cloud_cover"`
		EPSG       int     `json:"proj:epsg"`
	} `json:"properties"`
	Assets map[string]stacAsset `json:"assets"`
}

type stacPage struct {
	Context struct {
		Matched  int `json:"matched"`
		Returned int `json:"returned"`
	} `json:"context"`
	Links    []stacLink    `json:"links"`
	Features []stacFeature `json:"features"`
}

// SearchScenes implements catalog.ScenesProvider.
// The request is paginated with the "next" links of the responses until a page returns no feature.
// A non-200 response aborts the pagination and the scenes gathered so far are returned (the
// caller gets a partial inventory rather than nothing).
func (p *Provider) SearchScenes(ctx context.Context, area entities.SearchArea) ([]common.SceneRecord, error) {
	params := neturl.Values{}
	params.Set("bbox", area.BBox)
	params.Set("datetime", fmt.Sprintf("%sT00:00:00Z/%sT23:59:59Z", area.StartTime.Format("2006-01-02"), area.EndTime.Format("2006-01-02")))
	params.Set("collections", strings.Join(area.Collections, ","))
	params.Set("limit", fmt.Sprintf("%d", pageLimit))
	params.Set("sortby", "+properties.datetime")

	var records []common.SceneRecord
	seen := service.StringSet{}
	url := p.URL
	for requestCount := 1; ; requestCount++ {
		page, status, err := p.getPage(ctx, url, params)
		if err != nil {
			return nil, fmt.Errorf("SearchScenes.%w", RequestError{URL: url, Err: err})
		}
		params = nil

		if status != 200 {
			log.Logger(ctx).Sugar().Warnf("[EarthSearch] http status %d: search aborted, %d scenes gathered", status, len(records))
			break
		}

		log.Logger(ctx).Sugar().Debugf("[EarthSearch] page %d: limit=%d matched=%d returned=%d", requestCount, pageLimit, page.Context.Matched, page.Context.Returned)
		if page.Context.Returned == 0 {
			break
		}

		for _, feature := range page.Features {
			// pages can overlap when the catalog is updated during the pagination
			if seen.Exists(feature.ID) {
				continue
			}
			seen.Push(feature.ID)
			records = append(records, toSceneRecord(feature))
		}

		url = nextLink(page.Links)
		if url == "" {
			break
		}
	}

	log.Logger(ctx).Sugar().Debugf("%d scenes found", len(records))
	return records, nil
}

func (p *Provider) getPage(ctx context.Context, url string, params neturl.Values) (stacPage, int, error) {
	resp, err := p.Session.Get(ctx, url, params)
	if err != nil {
		return stacPage{}, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		io.Copy(io.Discard, resp.Body)
		return stacPage{}, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return stacPage{}, 0, fmt.Errorf("getPage.ReadAll: %w", err)
	}
	page := stacPage{}
	if err := json.Unmarshal(body, &page); err != nil {
		return stacPage{}, 0, fmt.Errorf("getPage.Unmarshal: %w (response: %s)", err, body)
	}
	return page, 200, nil
}

func nextLink(links []stacLink) string {
	for _, link := range links {
		if link.Rel == "next" {
			return link.Href
		}
	}
	return ""
}

// toSceneRecord maps a catalog feature to a SceneRecord.
// Absent fields degrade to zero values, they never abort the search.
func toSceneRecord(feature stacFeature) common.SceneRecord {
	date, _ := time.Parse(time.RFC3339Nano, feature.Properties.Datetime)
	return common.SceneRecord{
		SourceID:     feature.ID,
		Date:         date,
		ProductURI:   feature.Properties.ProductURI,
		ThumbnailURL: feature.Assets["thumbnail"].Href,
		VisualURL:    feature.Assets["visual"].Href,
		MetadataURL:  feature.Assets["granule_metadata"].Href,
		CloudCover:   feature.Properties.CloudCover,
		EPSG:         feature.Properties.EPSG,
		BBox:         feature.BBox,
	}
}
