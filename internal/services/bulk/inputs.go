package bulk

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/adlaunch/internal/models"
)

// maxHeadlineLen is the platform's creative headline limit
const maxHeadlineLen = 34

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
}

// ListVideos returns the video files in dir, sorted by name and capped at
// limit. A missing directory or one with no videos is an error: the job
// cannot do anything without media.
func ListVideos(dir string, limit int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read videos directory: %w", err)
	}

	var videos []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			videos = append(videos, filepath.Join(dir, entry.Name()))
		}
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("no video files found in %s", dir)
	}

	sort.Strings(videos)
	if limit > 0 && len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

// LoadHeadlines reads headlines from the first CSV column, dropping empty
// lines and anything over the platform's length limit. skipHeader drops the
// first row.
func LoadHeadlines(path string, skipHeader bool) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open headlines file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse headlines file: %w", err)
	}

	var headlines []string
	for i, record := range records {
		if skipHeader && i == 0 {
			continue
		}
		if len(record) == 0 {
			continue
		}
		headline := strings.TrimSpace(record[0])
		if headline == "" || utf8.RuneCountInString(headline) > maxHeadlineLen {
			continue
		}
		headlines = append(headlines, headline)
	}
	return headlines, nil
}

// SyntheticHeadlines generates placeholder headlines around a brand name.
// Used only when the job explicitly allows running without a CSV.
func SyntheticHeadlines(brand string) []string {
	return []string{
		TruncateHeadline(fmt.Sprintf("Shop %s Today", brand)),
		TruncateHeadline(fmt.Sprintf("%s - Limited Offer", brand)),
		TruncateHeadline(fmt.Sprintf("Discover %s Now", brand)),
	}
}

// TruncateHeadline enforces the headline length limit with an ellipsis
func TruncateHeadline(headline string) string {
	if utf8.RuneCountInString(headline) <= maxHeadlineLen {
		return headline
	}
	runes := []rune(headline)
	return string(runes[:maxHeadlineLen-3]) + "..."
}

// HeadlineFor returns the headline for upload index i, cycling through the
// pool. An empty pool falls back to the brand name.
func HeadlineFor(headlines []string, i int, brand string) string {
	if len(headlines) == 0 {
		return TruncateHeadline(brand)
	}
	return headlines[i%len(headlines)]
}

// BuildUploadQueue repeats the video list in order, one full cycle beyond
// what the target strictly needs. The slack entries stand in for items
// abandoned after their retry budget, so the upload stage can still reach
// the exact-count goal when occasional uploads fail; the consumer stops
// once enough uploads succeed.
func BuildUploadQueue(videos []string, target int) []string {
	if len(videos) == 0 || target <= 0 {
		return nil
	}

	cycles := target/len(videos) + 1
	queue := make([]string, 0, cycles*len(videos))
	for c := 0; c < cycles; c++ {
		queue = append(queue, videos...)
	}
	return queue
}

// MediaBatch returns the jth contiguous batch of size batchSize, clamped to
// the slice bounds. An empty result means the media ran out.
func MediaBatch(media []models.UploadedMedia, j, batchSize int) []models.UploadedMedia {
	start := j * batchSize
	if start >= len(media) {
		return nil
	}
	end := start + batchSize
	if end > len(media) {
		end = len(media)
	}
	return media[start:end]
}
