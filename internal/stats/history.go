package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"evovec/internal/model"
)

var historyHeader = []string{"iteration", "temperature", "current_fitness", "best_fitness", "improving", "annealed"}

func WriteHistoryCSV(path string, history []model.HistorySample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(historyHeader); err != nil {
		return err
	}
	for _, sample := range history {
		if err := writer.Write([]string{
			strconv.Itoa(sample.Iteration),
			strconv.FormatFloat(sample.Temperature, 'g', -1, 64),
			strconv.FormatUint(sample.Current, 10),
			strconv.FormatUint(sample.Best, 10),
			strconv.Itoa(sample.Improving),
			strconv.Itoa(sample.Annealed),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadHistoryCSV(path string) ([]model.HistorySample, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []model.HistorySample{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < len(historyHeader) {
		return nil, false, fmt.Errorf("fitness history header must have %d columns", len(historyHeader))
	}

	history := make([]model.HistorySample, 0, 128)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		sample, err := parseHistoryRecord(record)
		if err != nil {
			return nil, false, fmt.Errorf("fitness history line %d: %w", line, err)
		}
		history = append(history, sample)
	}
	return history, true, nil
}

func parseHistoryRecord(record []string) (model.HistorySample, error) {
	var (
		sample model.HistorySample
		err    error
	)
	if sample.Iteration, err = strconv.Atoi(record[0]); err != nil {
		return sample, err
	}
	if sample.Temperature, err = strconv.ParseFloat(record[1], 64); err != nil {
		return sample, err
	}
	if sample.Current, err = strconv.ParseUint(record[2], 10, 64); err != nil {
		return sample, err
	}
	if sample.Best, err = strconv.ParseUint(record[3], 10, 64); err != nil {
		return sample, err
	}
	if sample.Improving, err = strconv.Atoi(record[4]); err != nil {
		return sample, err
	}
	if sample.Annealed, err = strconv.Atoi(record[5]); err != nil {
		return sample, err
	}
	return sample, nil
}
