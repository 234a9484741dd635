package simulation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
)

// TrainClass is a tagged variant of a scheduled train's priority class.
type TrainClass string

const (
	ClassShatabdi  TrainClass = "SHATABDI"
	ClassRajdhani  TrainClass = "RAJDHANI"
	ClassPassenger TrainClass = "PASSENGER"
	ClassDMU       TrainClass = "DMU"
	ClassMEMU      TrainClass = "MEMU"
	ClassSFExpress TrainClass = "SF_EXPRESS"
	ClassMail      TrainClass = "MAIL"
	ClassExpress   TrainClass = "EXPRESS"
)

// classBase holds each class's base priority under the trainType flag
// (§4.6). Classes not found here (or when trainType is off) default to 1.
var classBase = map[TrainClass]int{
	ClassShatabdi:  10,
	ClassRajdhani:  9,
	ClassPassenger: 8,
	ClassDMU:       7,
	ClassMEMU:      6,
	ClassSFExpress: 5,
	ClassMail:      4,
	ClassExpress:   3,
}

// Base returns the class's base priority when byType is true, else the
// uniform baseline of 1 that applies when the trainType priority is off.
func (c TrainClass) Base(byType bool) int {
	if !byType {
		return 1
	}
	if b, ok := classBase[c]; ok {
		return b
	}
	return 1
}

// ScheduleEntry is one row of the input schedule: a train that will spawn
// at StartNode once the simulated clock reaches its arrival time.
type ScheduleEntry struct {
	TrainNo     string
	TrainName   string
	StartNodeID string
	EndNodeID   string
	ArrivalTime Clock
	Class       TrainClass
}

// ScheduleSource yields the entries a Simulation should spawn trains from,
// in arrival order.
type ScheduleSource interface {
	Entries() []ScheduleEntry
}

// StaticSchedule is a ScheduleSource backed by an in-memory, pre-sorted
// slice of entries, as produced by LoadScheduleCSV.
type StaticSchedule struct {
	entries []ScheduleEntry
}

// Entries implements ScheduleSource.
func (s *StaticSchedule) Entries() []ScheduleEntry {
	return s.entries
}

// LoadScheduleFile reads and parses a schedule CSV file from disk.
func LoadScheduleFile(path string) (*StaticSchedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open schedule %s: %w", path, err)
	}
	defer f.Close()
	return LoadScheduleCSV(f)
}

// LoadScheduleCSV parses the CSV format described in spec.md §6:
//
//	Train No, Train Name, Start Node, End Node, Arrival time (HH:MM:SS), Type
//
// Entries are returned sorted by arrival time, ties broken by file order.
func LoadScheduleCSV(r io.Reader) (*StaticSchedule, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse schedule csv: %w", err)
	}
	if len(rows) == 0 {
		return &StaticSchedule{}, nil
	}
	start := 0
	if looksLikeHeader(rows[0]) {
		start = 1
	}
	entries := make([]ScheduleEntry, 0, len(rows)-start)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 6 {
			return nil, fmt.Errorf("schedule csv row %d: expected 6 columns, got %d", i+1, len(row))
		}
		arrival, err := parseArrivalTime(row[4])
		if err != nil {
			return nil, fmt.Errorf("schedule csv row %d: %w", i+1, err)
		}
		entries = append(entries, ScheduleEntry{
			TrainNo:     strings.TrimSpace(row[0]),
			TrainName:   strings.TrimSpace(row[1]),
			StartNodeID: strings.TrimSpace(row[2]),
			EndNodeID:   strings.TrimSpace(row[3]),
			ArrivalTime: arrival,
			Class:       TrainClass(strings.ToUpper(strings.TrimSpace(row[5]))),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ArrivalTime < entries[j].ArrivalTime
	})
	return &StaticSchedule{entries: entries}, nil
}

func looksLikeHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(row[0]), "Train No")
}

// parseArrivalTime parses an HH:MM:SS clock-of-day string into a Clock
// value in seconds since midnight.
func parseArrivalTime(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("invalid arrival time %q: %w", s, err)
	}
	secs := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return Clock(secs), nil
}

// ReadAllScheduleBytes is a convenience for callers holding the CSV already
// in memory (e.g. an uploaded file), avoiding an intermediate temp file.
func ReadAllScheduleBytes(data []byte) (*StaticSchedule, error) {
	return LoadScheduleCSV(strings.NewReader(string(data)))
}
