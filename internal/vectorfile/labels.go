package vectorfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseLabelFile reads the raw, one-line-per-node comma-separated
// label file (--label_file).
func ParseLabelFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out [][]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			out = append(out, nil)
			continue
		}
		tokens := strings.Split(line, ",")
		for i := range tokens {
			tokens[i] = strings.TrimSpace(tokens[i])
		}
		out = append(out, tokens)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConvertLabelsStringToInt assigns each distinct label string a dense
// uint32 id (in order of first appearance), writes the id-per-node
// formatted file and the string->id map file, and returns the map.
// universalLabel, if non-empty, is always assigned id 0.
func ConvertLabelsStringToInt(labelFile, formattedOut, mapOut, universalLabel string) (map[string]uint32, error) {
	rows, err := ParseLabelFile(labelFile)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]uint32)
	var order []string
	assign := func(label string) uint32 {
		if id, ok := ids[label]; ok {
			return id
		}
		id := uint32(len(order))
		ids[label] = id
		order = append(order, label)
		return id
	}

	if universalLabel != "" {
		assign(universalLabel)
	}

	formattedRows := make([][]uint32, len(rows))
	for i, tokens := range rows {
		row := make([]uint32, 0, len(tokens))
		for _, t := range tokens {
			if t == "" {
				continue
			}
			row = append(row, assign(t))
		}
		formattedRows[i] = row
	}

	if err := writeFormatted(formattedOut, formattedRows); err != nil {
		return nil, err
	}
	if err := writeMap(mapOut, order, ids); err != nil {
		return nil, err
	}

	return ids, nil
}

func writeFormatted(path string, rows [][]uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, id := range row {
			parts[i] = strconv.FormatUint(uint64(id), 10)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, ",")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func writeMap(path string, order []string, ids map[string]uint32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, label := range order {
		if _, err := fmt.Fprintf(w, "%s,%d\n", label, ids[label]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// ParseFormattedLabelFile reads the dense-integer label file produced
// by ConvertLabelsStringToInt, one []uint32 per node.
func ParseFormattedLabelFile(path string) ([][]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out [][]uint32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			out = append(out, nil)
			continue
		}
		tokens := strings.Split(line, ",")
		row := make([]uint32, 0, len(tokens))
		for _, t := range tokens {
			id, err := strconv.ParseUint(strings.TrimSpace(t), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("parsing label id %q: %w", t, err)
			}
			row = append(row, uint32(id))
		}
		out = append(out, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
