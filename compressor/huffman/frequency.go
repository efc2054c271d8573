package huffman

import (
	"fmt"
	"math"
)

// Symbol is an input byte value, or Terminator.
type Symbol uint16

const (
	// Terminator marks the logical end of the packed stream.
	Terminator Symbol = 256
	// NumSymbols covers every byte value plus Terminator.
	NumSymbols = 257
	// TerminatorByte is how the Terminator leaf is written in a serialized tree.
	TerminatorByte byte = 3
	// internalMarker is the serialized byte of an internal node.
	internalMarker byte = 0
)

func (s Symbol) String() string {
	if s == Terminator {
		return "<EOT>"
	}
	return fmt.Sprintf("%d", uint16(s))
}

// wireByte is the byte a leaf carrying s is serialized as.
func (s Symbol) wireByte() byte {
	if s == Terminator {
		return TerminatorByte
	}
	return byte(s)
}

type FrequencyTable struct {
	counts    [NumSymbols]uint32
	saturated [NumSymbols]bool
}

func NewFrequencyTable() *FrequencyTable {
	return new(FrequencyTable)
}

// CountFrequencies counts every byte of data and then adds the Terminator once.
// With workers > 1 the scan is split into chunks counted concurrently; the
// reduction runs in chunk order so the table is identical either way.
func CountFrequencies(data []byte, workers int) (*FrequencyTable, []OverflowWarning) {
	ft := NewFrequencyTable()
	var warnings []OverflowWarning
	if workers <= 1 || len(data) < workers*minChunkSize {
		warnings = ft.Add(data)
	} else {
		chunkSize := (len(data) + workers - 1) / workers
		countChannels := make([]chan [256]uint64, 0, workers)
		for start := 0; start < len(data); start += chunkSize {
			end := min(len(data), start+chunkSize)
			channel := make(chan [256]uint64, 1)
			countChannels = append(countChannels, channel)
			go countChunk(channel, data[start:end])
		}
		for _, channel := range countChannels {
			warnings = append(warnings, ft.merge(<-channel)...)
		}
	}
	warnings = append(warnings, ft.increment(Terminator, 1)...)
	for _, w := range warnings {
		log.Warningf("%v", w)
	}
	return ft, warnings
}

const minChunkSize = 1 << 16

func countChunk(countChannel chan<- [256]uint64, chunk []byte) {
	var counts [256]uint64
	for _, b := range chunk {
		counts[b]++
	}
	countChannel <- counts
}

// Add counts data into the table. Counters saturate at math.MaxUint32; each
// symbol is reported at most once.
func (ft *FrequencyTable) Add(data []byte) []OverflowWarning {
	var counts [256]uint64
	for _, b := range data {
		counts[b]++
	}
	return ft.merge(counts)
}

func (ft *FrequencyTable) merge(counts [256]uint64) []OverflowWarning {
	var warnings []OverflowWarning
	for b, n := range counts {
		if n > 0 {
			warnings = append(warnings, ft.increment(Symbol(b), n)...)
		}
	}
	return warnings
}

func (ft *FrequencyTable) increment(s Symbol, n uint64) []OverflowWarning {
	total := uint64(ft.counts[s]) + n
	if total <= math.MaxUint32 {
		ft.counts[s] = uint32(total)
		return nil
	}
	ft.counts[s] = math.MaxUint32
	if ft.saturated[s] {
		return nil
	}
	ft.saturated[s] = true
	return []OverflowWarning{{Symbol: s}}
}

func (ft *FrequencyTable) Count(s Symbol) uint32 {
	return ft.counts[s]
}

// Distinct returns how many symbols have a non-zero count.
func (ft *FrequencyTable) Distinct() int {
	n := 0
	for _, c := range ft.counts {
		if c > 0 {
			n++
		}
	}
	return n
}
