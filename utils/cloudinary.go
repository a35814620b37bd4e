package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"lse/config"

	"github.com/go-resty/resty/v2"
)

// ResourceTypeConfig defines what the media host accepts per resource type.
// Files are rejected locally before any network call.
type ResourceTypeConfig struct {
	Extensions     []string
	MaxSizeMB      int64
	CloudinaryType string // video, image or raw on the Cloudinary side
}

// AllowedResourceConfig maps our multimedia types to upload constraints.
var AllowedResourceConfig = map[string]ResourceTypeConfig{
	"video":     {Extensions: []string{"mp4", "mov", "avi", "webm", "mkv"}, MaxSizeMB: 100, CloudinaryType: "video"},
	"image":     {Extensions: []string{"jpg", "jpeg", "png"}, MaxSizeMB: 10, CloudinaryType: "image"},
	"gif":       {Extensions: []string{"gif"}, MaxSizeMB: 20, CloudinaryType: "image"},
	"animation": {Extensions: []string{"gif", "webp"}, MaxSizeMB: 20, CloudinaryType: "image"},
	"document":  {Extensions: []string{"pdf", "docx", "txt", "pptx"}, MaxSizeMB: 50, CloudinaryType: "raw"},
}

// CloudinaryUploadResult is the subset of the upload response we keep.
type CloudinaryUploadResult struct {
	SecureURL    string  `json:"secure_url"`
	PublicID     string  `json:"public_id"`
	Format       string  `json:"format"`
	Bytes        int64   `json:"bytes"`
	Duration     float64 `json:"duration"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	ResourceType string  `json:"resource_type"`
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// ValidateUploadFile enforces the per-type extension and size allow-lists.
func ValidateUploadFile(filename string, sizeBytes int64, resourceType string) error {
	cfg, ok := AllowedResourceConfig[resourceType]
	if !ok {
		allowed := make([]string, 0, len(AllowedResourceConfig))
		for k := range AllowedResourceConfig {
			allowed = append(allowed, k)
		}
		sort.Strings(allowed)
		return fmt.Errorf("tipo '%s' no permitido. Permitidos: %s", resourceType, strings.Join(allowed, ", "))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return fmt.Errorf("archivo sin extensión")
	}

	valid := false
	for _, e := range cfg.Extensions {
		if e == ext {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("extensión .%s no permitida para %s. Permitidas: %s", ext, resourceType, strings.Join(cfg.Extensions, ", "))
	}

	if sizeBytes > cfg.MaxSizeMB*1024*1024 {
		return fmt.Errorf("archivo muy grande (%.1fMB). Máximo: %dMB", float64(sizeBytes)/(1024*1024), cfg.MaxSizeMB)
	}

	return nil
}

// signParams builds the SHA-1 request signature Cloudinary expects: the
// alphabetically sorted params concatenated with the API secret.
func signParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	h := sha1.Sum([]byte(strings.Join(pairs, "&") + config.AppConfig.CloudinaryApiSecret))
	return hex.EncodeToString(h[:])
}

// UploadToCloudinary uploads a validated file and returns the hosted asset
// metadata. The public id is namespaced per lesson so teacher uploads never
// collide across lessons.
func UploadToCloudinary(file io.Reader, filename string, resourceType string, lessonID uint) (*CloudinaryUploadResult, error) {
	cfg, ok := AllowedResourceConfig[resourceType]
	if !ok {
		return nil, fmt.Errorf("tipo '%s' no permitido", resourceType)
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	safeName := unsafeNameChars.ReplaceAllString(base, "_")
	folder := fmt.Sprintf("%s/lesson_%d", config.AppConfig.CloudinaryUploadFolder, lessonID)
	publicID := fmt.Sprintf("%s_%d", safeName, time.Now().Unix())

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signed := map[string]string{
		"folder":    folder,
		"public_id": publicID,
		"timestamp": timestamp,
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/%s/upload",
		config.AppConfig.CloudinaryCloudName, cfg.CloudinaryType)

	client := resty.New()
	resp, err := client.R().
		SetFileReader("file", filename, file).
		SetFormData(map[string]string{
			"api_key":   config.AppConfig.CloudinaryApiKey,
			"timestamp": timestamp,
			"signature": signParams(signed),
			"folder":    folder,
			"public_id": publicID,
		}).
		Post(endpoint)
	if err != nil {
		log.Printf("[CLOUDINARY] Upload request failed: %v", err)
		return nil, err
	}
	if resp.StatusCode() != 200 {
		log.Printf("[CLOUDINARY] Upload rejected: %s", resp.String())
		return nil, fmt.Errorf("cloudinary upload failed with status %d", resp.StatusCode())
	}

	var result CloudinaryUploadResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse cloudinary response: %v", err)
	}

	return &result, nil
}

// DeleteFromCloudinary destroys a hosted asset. Returns true when the asset
// was removed (or was already gone).
func DeleteFromCloudinary(publicID, resourceType string) bool {
	cfg, ok := AllowedResourceConfig[resourceType]
	if !ok {
		return false
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	signed := map[string]string{
		"public_id": publicID,
		"timestamp": timestamp,
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/%s/destroy",
		config.AppConfig.CloudinaryCloudName, cfg.CloudinaryType)

	client := resty.New()
	resp, err := client.R().
		SetFormData(map[string]string{
			"api_key":   config.AppConfig.CloudinaryApiKey,
			"timestamp": timestamp,
			"signature": signParams(signed),
			"public_id": publicID,
		}).
		Post(endpoint)
	if err != nil {
		log.Printf("[CLOUDINARY] Destroy request failed for %s: %v", publicID, err)
		return false
	}

	var result struct {
		Result string `json:"result"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return false
	}

	return result.Result == "ok" || result.Result == "not found"
}
