package common

import (
	"fmt"
	neturl "net/url"
	"path"
	"strings"
)

// Suffixes of the output files
const (
	SuffixVisual    = "TCI"
	SuffixMetadata  = "metadata"
	SuffixThumbnail = "thumbnail"
)

// GetExt returns the file extension of the url (including the dot), ignoring any query string
func GetExt(fileURL string) string {
	if u, err := neturl.Parse(fileURL); err == nil && u.Path != "" {
		return path.Ext(u.Path)
	}
	return path.Ext(fileURL)
}

// FileName returns the standard output file name "<prefix>_<sceneID>_<suffix><ext-of-url>"
func FileName(prefix, sceneID, suffix, fileURL string) string {
	return fmt.Sprintf("%s_%s_%s%s", prefix, sceneID, suffix, GetExt(fileURL))
}

// VRTName returns the name of the scratch raster of a scene
func VRTName(sceneID string) string {
	return sceneID + "_" + SuffixVisual + ".vrt"
}

// Info extracts the components of a Sentinel-2 product name
// MMM_MSIXXX_YYYYMMDDTHHMMSS_Nxxyy_ROOO_Txxxxx_<Product Discriminator>
func Info(sceneName string) (map[string]string, error) {
	sceneName = strings.TrimSuffix(sceneName, ".SAFE")
	if !strings.HasPrefix(sceneName, "S2") {
		return nil, fmt.Errorf("not a Sentinel2 product name: " + sceneName)
	}
	parts := strings.Split(sceneName, "_")
	if len(parts) < 7 || len(parts[2]) != len("YYYYMMDDTHHMMSS") || len(parts[5]) != len("Txxxxx") {
		return nil, fmt.Errorf("invalid Sentinel2 product name: " + sceneName)
	}
	return map[string]string{
		"SCENE":         sceneName,
		"MISSION_ID":    parts[0],
		"PRODUCT_LEVEL": strings.TrimPrefix(parts[1], "MSI"),
		"DATE":          parts[2][0:8],
		"YEAR":          parts[2][0:4],
		"MONTH":         parts[2][4:6],
		"DAY":           parts[2][6:8],
		"TIME":          parts[2][9:15],
		"PDGS":          strings.TrimPrefix(parts[3], "N"),
		"ORBIT":         strings.TrimPrefix(parts[4], "R"),
		"TILE":          parts[5],
		"LATITUDE_BAND": parts[5][1:3],
		"GRID_SQUARE":   parts[5][3:4],
		"GRANULE_ID":    parts[5][4:6],
		"DISCRIMINATOR": parts[6],
	}, nil
}

// FormatBrackets replaces the {IDENTIFIER} of the str by the values of the maps
func FormatBrackets(str string, infos ...map[string]string) string {
	for _, info := range infos {
		for k, v := range info {
			str = strings.ReplaceAll(str, "{"+k+"}", v)
		}
	}
	return str
}
