package common

import (
	"testing"
)

func checkKeyValue(t *testing.T, format map[string]string, key, value string) {
	if v, ok := format[key]; !ok {
		t.Errorf("key %s not found", key)
	} else if v != value {
		t.Errorf("expected %s for key %s, got %s", value, key, v)
	}
}

func TestInfo(t *testing.T) {
	if _, err := Info("S2B_MSIL2A_20230108T104429_N0509_R008"); err == nil {
		t.Errorf("too short product name")
	}
	if _, err := Info("LC08_L1TP_198030_20230108_20230108_02_T1"); err == nil {
		t.Errorf("not a Sentinel2 product name")
	}
	if format, err := Info("S2B_MSIL2A_20230108T104429_N0509_R008_T32UNF_20230108T124859.SAFE"); err != nil {
		t.Errorf(err.Error())
	} else {
		checkKeyValue(t, format, "SCENE", "S2B_MSIL2A_20230108T104429_N0509_R008_T32UNF_20230108T124859")
		checkKeyValue(t, format, "MISSION_ID", "S2B")
		checkKeyValue(t, format, "PRODUCT_LEVEL", "L2A")
		checkKeyValue(t, format, "DATE", "20230108")
		checkKeyValue(t, format, "YEAR", "2023")
		checkKeyValue(t, format, "MONTH", "01")
		checkKeyValue(t, format, "DAY", "08")
		checkKeyValue(t, format, "TIME", "104429")
		checkKeyValue(t, format, "PDGS", "0509")
		checkKeyValue(t, format, "ORBIT", "008")
		checkKeyValue(t, format, "TILE", "T32UNF")
		checkKeyValue(t, format, "LATITUDE_BAND", "32")
		checkKeyValue(t, format, "GRID_SQUARE", "U")
		checkKeyValue(t, format, "GRANULE_ID", "NF")
		checkKeyValue(t, format, "DISCRIMINATOR", "20230108T124859")
	}
}

func TestFormatBrackets(t *testing.T) {
	format, err := Info("S2A_MSIL2A_20230601T105031_N0509_R051_T31UDQ_20230601T170754")
	if err != nil {
		t.Fatalf(err.Error())
	}
	url := FormatBrackets("gs://products/{YEAR}/{MONTH}/{TILE}/{SCENE}.zip", format)
	expected := "gs://products/2023/06/T31UDQ/S2A_MSIL2A_20230601T105031_N0509_R051_T31UDQ_20230601T170754.zip"
	if url != expected {
		t.Errorf("expected %s, got %s", expected, url)
	}
}

func TestGetExt(t *testing.T) {
	exts := map[string]string{
		"https://example.com/TCI.tif":                     ".tif",
		"https://example.com/TCI.tif?st=2023&se=sig":      ".tif",
		"s3://sentinel-cogs/32/U/NF/2023/1/S2B/TCI.tif":   ".tif",
		"https://example.com/metadata.xml":                ".xml",
		"https://example.com/thumbnail.jpg":               ".jpg",
		"https://example.com/noext":                       "",
		"MTD.xml":                                         ".xml",
	}
	for url, ext := range exts {
		if e := GetExt(url); e != ext {
			t.Errorf("expected %q for %s, got %q", ext, url, e)
		}
	}
}

func TestFileName(t *testing.T) {
	name := FileName("AOI1", "S2A_T31UDQ_20230601", SuffixVisual, "https://example.com/TCI.tif?sig=abc")
	if name != "AOI1_S2A_T31UDQ_20230601_TCI.tif" {
		t.Errorf("unexpected file name: %s", name)
	}
	name = FileName("AOI1", "S2A_T31UDQ_20230601", SuffixMetadata, "s3://bucket/granule_metadata.xml")
	if name != "AOI1_S2A_T31UDQ_20230601_metadata.xml" {
		t.Errorf("unexpected file name: %s", name)
	}
	if VRTName("S2A_T31UDQ_20230601") != "S2A_T31UDQ_20230601_TCI.vrt" {
		t.Errorf("unexpected vrt name: %s", VRTName("S2A_T31UDQ_20230601"))
	}
}

func TestItemStatus(t *testing.T) {
	if ItemStatusDONE.String() != "DONE" || ItemStatusFAILED.String() != "FAILED" {
		t.Errorf("unexpected status strings: %s %s", ItemStatusDONE, ItemStatusFAILED)
	}
	s, err := ItemStatusString("SKIPPED")
	if err != nil || s != ItemStatusSKIPPED {
		t.Errorf("expected SKIPPED, got %s (%v)", s, err)
	}
	if _, err := ItemStatusString("UNKNOWN"); err == nil {
		t.Errorf("expected an error for UNKNOWN")
	}
}
