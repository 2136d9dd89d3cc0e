package service

import (
	"fmt"
	"math"
	"strings"

	"partforge/internal/domain"

	"github.com/google/uuid"
)

// powerReserveW is the fixed headroom added on top of the known component
// draw when estimating the build's load.
const powerReserveW = 150

// psuHeadroomFactor is the recommended wattage margin over the estimate.
const psuHeadroomFactor = 1.2

// CompatibilityReport is the advisory output of the estimator. Errors make
// the build incompatible; warnings never block anything.
type CompatibilityReport struct {
	BuildID        uuid.UUID `json:"build_id"`
	Compatible     bool      `json:"compatible"`
	Errors         []string  `json:"errors"`
	Warnings       []string  `json:"warnings"`
	EstimatedLoadW *int      `json:"estimated_load_w"`
	PSUWattageW    *int      `json:"psu_wattage_w"`
	CPUSocket      *string   `json:"cpu_socket"`
	MBSocket       *string   `json:"mb_socket"`
}

// specReader parses one product's spec blob lazily and reports the parse
// failure as a single warning per product, regardless of how many attributes
// are read from it.
type specReader struct {
	attrs map[string]any
}

func newSpecReader(blob string, label string, warnings *[]string) *specReader {
	attrs, err := domain.ParseSpecAttributes(blob)
	if err != nil {
		*warnings = append(*warnings, label+" spec is not valid JSON")
		attrs = map[string]any{}
	}
	return &specReader{attrs: attrs}
}

func (s *specReader) str(key string) (string, bool) { return domain.SpecString(s.attrs, key) }
func (s *specReader) num(key string) (int, bool)    { return domain.SpecInt(s.attrs, key) }

// EstimateCompatibility inspects a build's items and produces the
// compatibility report. Pure and read-only: every problem surfaces as data,
// never as an error value.
func EstimateCompatibility(build *domain.Build) CompatibilityReport {
	errs := []string{}
	warnings := []string{}

	cpuItem := build.FirstItemByCategory(domain.CategoryCPU)
	mbItem := build.FirstItemByCategory(domain.CategoryMB)
	psuItem := build.FirstItemByCategory(domain.CategoryPSU)

	var cpuSocket, mbSocket *string
	var cpuTdp, psuWattage *int
	gpuTdpSum := 0

	if cpuItem != nil {
		cpu := newSpecReader(cpuItem.Product.Spec, "CPU", &warnings)
		if s, ok := cpu.str("socket"); ok {
			cpuSocket = &s
		}
		if tdp, ok := cpu.num("tdp"); ok {
			total := tdp * cpuItem.Quantity
			cpuTdp = &total
		}
	} else {
		warnings = append(warnings, "No CPU in build")
	}

	if mbItem != nil {
		mb := newSpecReader(mbItem.Product.Spec, "MB", &warnings)
		if s, ok := mb.str("socket"); ok {
			mbSocket = &s
		}
	} else {
		warnings = append(warnings, "No motherboard in build")
	}

	switch {
	case cpuSocket != nil && mbSocket != nil && !strings.EqualFold(*cpuSocket, *mbSocket):
		errs = append(errs, fmt.Sprintf("CPU socket %s does not match MB socket %s", *cpuSocket, *mbSocket))
	case cpuSocket == nil && cpuItem != nil:
		warnings = append(warnings, "CPU socket is missing in spec")
	case mbSocket == nil && mbItem != nil:
		warnings = append(warnings, "MB socket is missing in spec")
	}

	if psuItem != nil {
		psu := newSpecReader(psuItem.Product.Spec, "PSU", &warnings)
		if w, ok := psu.num("wattage"); ok {
			psuWattage = &w
		} else {
			warnings = append(warnings, "PSU wattage is missing in spec")
		}
	} else {
		warnings = append(warnings, "No PSU in build")
	}

	for i := range build.Items {
		item := &build.Items[i]
		if item.Product.Category != domain.CategoryGPU {
			continue
		}
		gpu := newSpecReader(item.Product.Spec, "GPU", &warnings)
		if tdp, ok := gpu.num("tdp"); ok {
			gpuTdpSum += tdp * item.Quantity
		} else {
			warnings = append(warnings, fmt.Sprintf("GPU TDP is missing in spec (productId %s)", item.ProductID))
		}
	}

	var estimated *int
	if cpuTdp != nil || gpuTdpSum > 0 {
		cpuPart := 0
		if cpuTdp != nil {
			cpuPart = *cpuTdp
		}
		load := cpuPart + gpuTdpSum + powerReserveW
		estimated = &load
	} else {
		warnings = append(warnings, "Cannot estimate load (missing CPU/GPU TDP)")
	}

	if estimated != nil && psuWattage != nil {
		switch {
		case *psuWattage < *estimated:
			errs = append(errs, fmt.Sprintf("PSU wattage %dW is below estimated load %dW", *psuWattage, *estimated))
		case *psuWattage < int(math.Ceil(float64(*estimated)*psuHeadroomFactor)):
			warnings = append(warnings, fmt.Sprintf("PSU wattage %dW has low headroom for estimated load %dW", *psuWattage, *estimated))
		}
	}

	return CompatibilityReport{
		BuildID:        build.ID,
		Compatible:     len(errs) == 0,
		Errors:         errs,
		Warnings:       warnings,
		EstimatedLoadW: estimated,
		PSUWattageW:    psuWattage,
		CPUSocket:      cpuSocket,
		MBSocket:       mbSocket,
	}
}
