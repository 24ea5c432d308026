package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"sync"
	"time"

	"metrix-portal/internal/models"
	"metrix-portal/internal/registry"
	"metrix-portal/internal/repository"
)

const (
	// onlineWindow: a meter is online iff it reported within this window.
	// The boundary is inclusive: exactly 48h is still online.
	onlineWindow = 48 * time.Hour

	// staleDayLimit: freshness turns from stale to outdated past this many
	// calendar days. Thresholded independently of onlineWindow; the badge
	// and the online flag may disagree, which is documented behavior.
	staleDayLimit = 2

	synthesizedHistoryMonths = 6
)

// RegistrySearcher is the slice of the registry client the resolver needs.
type RegistrySearcher interface {
	Search(ctx context.Context, value string) (*registry.SearchPage, error)
}

type IResolverService interface {
	Resolve(ctx context.Context, value string, kind models.SearchKind, userID string) (*models.MeterData, uint64, error)
	RecentSearches(ctx context.Context, userID string) ([]models.RecentSearch, error)
}

// ResolverService turns a raw registry record into the normalized MeterData
// the rest of the portal consumes. It is the single point where partial or
// absent registry data is reconciled: every field of the returned MeterData
// is populated.
type ResolverService struct {
	client     RegistrySearcher
	logRepo    repository.ILogRepository
	searchRepo repository.SearchRepository
	gens       *generationTracker
	now        func() time.Time
}

func NewResolverService(client RegistrySearcher, logRepo repository.ILogRepository, searchRepo repository.SearchRepository) IResolverService {
	return &ResolverService{
		client:     client,
		logRepo:    logRepo,
		searchRepo: searchRepo,
		gens:       newGenerationTracker(),
		now:        time.Now,
	}
}

// Resolve looks up an identifier in the registry and returns the normalized
// meter. Serial and account lookups route through the same registry search
// parameter. Returns models.ErrNotFound on zero matches and a
// *registry.TransportError on network or non-2xx failures.
//
// The returned generation is a per-user monotonic counter: a caller juggling
// concurrent lookups must apply only the response with the highest
// generation it has seen, so a slow stale response never clobbers a newer
// result.
func (s *ResolverService) Resolve(ctx context.Context, value string, kind models.SearchKind, userID string) (*models.MeterData, uint64, error) {
	gen := s.gens.next(userID)

	page, err := s.client.Search(ctx, value)
	if err != nil {
		return nil, gen, err
	}

	if len(page.Results) == 0 {
		s.logOutcome(value, "not_found", "")
		s.recordRecent(ctx, userID, gen, value, kind, false)
		return nil, gen, models.ErrNotFound
	}

	record := pickCanonical(page.Results)
	meter := s.mapRecord(record, value)

	s.logOutcome(value, "search", meter.Serial)
	s.recordRecent(ctx, userID, gen, value, kind, true)

	return meter, gen, nil
}

func (s *ResolverService) RecentSearches(ctx context.Context, userID string) ([]models.RecentSearch, error) {
	return s.searchRepo.ListRecent(ctx, userID)
}

// pickCanonical is the disambiguation policy for multi-match searches:
// first match wins. The registry documents no ordering for its result set,
// so this is an explicit choice, not a guarantee of relevance.
func pickCanonical(results []registry.MeterRecord) registry.MeterRecord {
	return results[0]
}

// mapRecord applies every normalization fallback of the data contract.
func (s *ResolverService) mapRecord(record registry.MeterRecord, searchValue string) *models.MeterData {
	now := s.now()

	serial := record.SerialNumber
	if serial == "" {
		serial = searchValue
	}

	account := record.AccountID
	if account == "" {
		account = fmt.Sprintf("Meter %s", serial)
	}

	reading := record.LastReading
	if reading == 0 {
		reading = record.Reading
	}

	lastUpdate, updatedAt, parsed := normalizeTimestamp(record.ReadingDT, record.SentDate, now)

	status := models.MeterOffline
	freshness := models.FreshnessOutdated
	if parsed {
		status = statusFor(updatedAt, now)
		freshness = classifyFreshness(updatedAt, now)
	}

	history, source := s.buildHistory(record, reading, now)

	lastConsumption := 0.0
	if len(history) > 0 {
		lastConsumption = history[len(history)-1].Consumption
	}

	return &models.MeterData{
		Serial:          serial,
		Account:         account,
		Address:         formatAddress(record.Street, record.House, record.Apartment),
		Reading:         reading,
		LastUpdate:      lastUpdate,
		Status:          status,
		LastConsumption: lastConsumption,
		Coverage:        normalizeCoverage(record.Coverage),
		Freshness:       freshness,
		History:         history,
		HistorySource:   source,

		Consumer:       record.Consumer,
		DeviceEUI:      record.DeviceEUI,
		DeviceType:     record.DeviceTypeName,
		ResourceType:   record.ResourceTypeName,
		JoinDate:       record.JoinDate,
		InitialReading: record.JoinReading,
		CheckDate:      record.CheckDate,
	}
}

// formatAddress joins street/house/apartment into one display string,
// dropping the apartment segment when absent.
func formatAddress(street, house, apartment string) string {
	address := fmt.Sprintf("%s, %s", street, house)
	if apartment != "" {
		address += fmt.Sprintf(", apt. %s", apartment)
	}
	return address
}

// normalizeTimestamp picks the freshest reported timestamp, falling back
// to "now" when the registry supplies none. The bool reports whether a
// real registry timestamp was parsed; a missing or garbled one classifies
// the meter offline/outdated instead of trusting the fallback.
func normalizeTimestamp(readingDT, sentDate string, now time.Time) (string, time.Time, bool) {
	for _, candidate := range []string{readingDT, sentDate} {
		if candidate == "" {
			continue
		}
		if t, err := parseRegistryTime(candidate); err == nil {
			return candidate, t, true
		}
		// Present but unparsable: keep the raw string for display, but do
		// not derive freshness from a value we cannot read.
		return candidate, now, false
	}
	return now.Format(time.RFC3339), now, true
}

// parseRegistryTime accepts the timestamp shapes the registry has been
// seen emitting.
func parseRegistryTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// statusFor classifies online/offline from elapsed time since the last
// report. Inclusive at the window boundary.
func statusFor(lastUpdate, now time.Time) models.MeterStatus {
	if now.Sub(lastUpdate) <= onlineWindow {
		return models.MeterOnline
	}
	return models.MeterOffline
}

// classifyFreshness produces the UI badge: fresh when the meter reported
// today or yesterday, stale up to staleDayLimit calendar days, outdated
// beyond that.
func classifyFreshness(lastUpdate, now time.Time) models.Freshness {
	days := calendarDaysBetween(lastUpdate, now)
	switch {
	case days <= 1:
		return models.FreshnessFresh
	case days <= staleDayLimit:
		return models.FreshnessStale
	default:
		return models.FreshnessOutdated
	}
}

func calendarDaysBetween(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

func normalizeCoverage(raw string) models.Coverage {
	switch models.Coverage(raw) {
	case models.CoverageExcellent, models.CoverageGood, models.CoverageSatisfactory, models.CoveragePoor:
		return models.Coverage(raw)
	default:
		return models.CoverageUnknown
	}
}

// buildHistory prefers registry-sourced history and only synthesizes a
// placeholder walk when the registry has none. Synthesized series exist
// for charting continuity and are tagged so no consumer mistakes them for
// telemetry.
func (s *ResolverService) buildHistory(record registry.MeterRecord, currentReading float64, now time.Time) ([]models.ReadingPoint, models.HistorySource) {
	if len(record.History) > 0 {
		points := make([]models.ReadingPoint, 0, len(record.History))
		for _, h := range record.History {
			points = append(points, models.ReadingPoint{
				Date:        h.Date,
				Reading:     h.Reading,
				Consumption: h.Consumption,
			})
		}
		return points, models.HistoryFromRegistry
	}
	return synthesizeHistory(record.SerialNumber, currentReading, now), models.HistorySynthesized
}

// synthesizeHistory walks backward from the current reading with a serial-
// seeded generator, so the same meter always charts the same placeholder
// series. Output is chronologically ascending.
func synthesizeHistory(serial string, currentReading float64, now time.Time) []models.ReadingPoint {
	h := fnv.New64a()
	h.Write([]byte(serial))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	consumptions := make([]float64, synthesizedHistoryMonths)
	for i := range consumptions {
		// 4–16 m3 per month, in whole liters.
		consumptions[i] = float64(4000+rng.Intn(12001)) / 1000
	}

	points := make([]models.ReadingPoint, synthesizedHistoryMonths)
	reading := currentReading
	for i := synthesizedHistoryMonths - 1; i >= 0; i-- {
		monthsBack := synthesizedHistoryMonths - 1 - i
		points[i] = models.ReadingPoint{
			Date:        now.AddDate(0, -monthsBack, 0).Format("2006-01-02"),
			Reading:     roundReading(reading),
			Consumption: roundReading(consumptions[i]),
		}
		reading -= consumptions[i]
		if reading < 0 {
			reading = 0
		}
	}

	// index 0 holds the oldest month, so the series is already ascending
	return points
}

// roundReading keeps readings at the 3-decimal display precision.
func roundReading(v float64) float64 {
	return float64(int64(v*1000+0.5)) / 1000
}

// logOutcome writes a best-effort audit record of the search. Failures are
// logged and swallowed: auditing never fails a lookup.
func (s *ResolverService) logOutcome(value, outcome, result string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entry := &models.SearchLog{
		Type:      outcome,
		Value:     value,
		Result:    result,
		Timestamp: s.now(),
	}
	if err := s.logRepo.InsertSearchLog(ctx, entry); err != nil {
		log.Printf("search log write failed (ignored): %v", err)
	}
}

// recordRecent caches the search in the user's recent list, unless a newer
// lookup by the same user has already started (stale generation).
func (s *ResolverService) recordRecent(ctx context.Context, userID string, gen uint64, value string, kind models.SearchKind, found bool) {
	if userID == "" {
		return
	}
	if !s.gens.isCurrent(userID, gen) {
		return
	}
	entry := models.RecentSearch{
		Value: value,
		Kind:  kind,
		Date:  s.now(),
		Found: found,
	}
	if err := s.searchRepo.PushRecent(ctx, userID, entry); err != nil {
		log.Printf("recent search write failed (ignored): %v", err)
	}
}

// generationTracker hands out per-user monotonic lookup generations and
// answers whether a finishing lookup is still the latest one.
type generationTracker struct {
	mu   sync.Mutex
	gens map[string]uint64
}

func newGenerationTracker() *generationTracker {
	return &generationTracker{gens: make(map[string]uint64)}
}

func (t *generationTracker) next(userID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gens[userID]++
	return t.gens[userID]
}

func (t *generationTracker) isCurrent(userID string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gens[userID] == gen
}
