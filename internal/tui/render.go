package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Partial cell heights for spectrum bars, empty to full.
var barBlocks = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

const traceRune = '•'

// waveformRows plots values in [0, 1] as a trace of height rows, top row
// first. Columns take the sample nearest their position; values outside
// [0, 1] are pinned to the edge rows.
func waveformRows(values []float64, width, height int) []string {
	grid := newGrid(width, height)
	if len(values) == 0 {
		return grid.rows()
	}

	for x := range width {
		v := values[x*len(values)/width]
		v = max(0, min(1, v))
		y := int((1-v)*float64(height-1) + 0.5)
		grid.set(x, y, traceRune)
	}

	return grid.rows()
}

// spectrumColumns reduces levels to width columns, taking the loudest bin
// each column covers.
func spectrumColumns(levels []float64, width int) []float64 {
	cols := make([]float64, width)
	if len(levels) == 0 {
		return cols
	}

	for x := range width {
		lo := x * len(levels) / width
		hi := max((x+1)*len(levels)/width, lo+1)

		peak := 0.0
		for _, v := range levels[lo:min(hi, len(levels))] {
			peak = max(peak, v)
		}
		cols[x] = max(0, min(1, peak))
	}

	return cols
}

// spectrumRows draws bars of height rows, top row first, with eighth-cell
// resolution on each bar's top.
func spectrumRows(cols []float64, height int) []string {
	grid := newGrid(len(cols), height)
	steps := len(barBlocks) - 1

	for x, level := range cols {
		eighths := int(level * float64(height*steps))
		for row := range height {
			fill := eighths - row*steps
			switch {
			case fill <= 0:
				continue
			case fill >= steps:
				grid.set(x, height-1-row, barBlocks[steps])
			default:
				grid.set(x, height-1-row, barBlocks[fill])
			}
		}
	}

	return grid.rows()
}

// renderSpectrum colours each bar by the row height it reaches.
func renderSpectrum(levels []float64, width, height int) string {
	rows := spectrumRows(spectrumColumns(levels, width), height)

	styled := make([]string, len(rows))
	for i, row := range rows {
		var style lipgloss.Style
		position := 1 - float64(i)/float64(height)
		switch {
		case position > 0.75:
			style = specHighStyle
		case position > 0.45:
			style = specMidStyle
		default:
			style = specLowStyle
		}
		styled[i] = style.Render(row)
	}

	return strings.Join(styled, "\n")
}

func renderWaveform(values []float64, width, height int) string {
	return traceStyle.Render(strings.Join(waveformRows(values, width, height), "\n"))
}

type grid struct {
	cells [][]rune
}

func newGrid(width, height int) grid {
	cells := make([][]rune, height)
	for y := range cells {
		cells[y] = []rune(strings.Repeat(" ", width))
	}
	return grid{cells: cells}
}

func (g grid) set(x, y int, r rune) {
	if y < 0 || y >= len(g.cells) || x < 0 || x >= len(g.cells[y]) {
		return
	}
	g.cells[y][x] = r
}

func (g grid) rows() []string {
	out := make([]string, len(g.cells))
	for y, row := range g.cells {
		out[y] = string(row)
	}
	return out
}
