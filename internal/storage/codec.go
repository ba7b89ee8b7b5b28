package storage

import (
	"encoding/json"
	"errors"
	"sort"

	"evovec/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion is the header stamped on every record written today.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(run model.RunRecord) ([]byte, error) {
	return json.Marshal(run)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodePolygonSet(set model.PolygonSet) ([]byte, error) {
	return json.Marshal(set)
}

func DecodePolygonSet(data []byte) (model.PolygonSet, error) {
	var set model.PolygonSet
	if err := json.Unmarshal(data, &set); err != nil {
		return model.PolygonSet{}, err
	}
	if err := checkVersion(set.VersionedRecord); err != nil {
		return model.PolygonSet{}, err
	}
	return set, nil
}

func EncodeFitnessHistory(history []model.HistorySample) ([]byte, error) {
	return json.Marshal(history)
}

func DecodeFitnessHistory(data []byte) ([]model.HistorySample, error) {
	var history []model.HistorySample
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SortRuns orders runs oldest first, breaking ties by id.
func SortRuns(runs []model.RunRecord) {
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC < runs[j].CreatedAtUTC
	})
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
