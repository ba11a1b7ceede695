// angle-fit loads an angle export JSON and fits the cubic dependencies
// q1 = phi1(q2) and q3 = phi3(q2) for each side, printing the coefficients
// and optionally plotting the fits over the sample scatter.
//
// Usage:
//
//	angle-fit [-save fits.png] <export.json>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/gait.report/internal/export"
	"github.com/banshee-data/gait.report/internal/kinematics"
	"github.com/banshee-data/gait.report/internal/plotting"
)

func main() {
	save := flag.String("save", "", "Write the dependency plots to this PNG file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-save fits.png] <export.json>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	doc, err := export.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("failed to load export: %v", err)
	}

	var data []plotting.DependencyData
	for _, side := range []string{"right", "left"} {
		prefix := "q" + side[:1]
		q1 := doc.Series(side, prefix+"1")
		q2 := doc.Series(side, prefix+"2")
		q3 := doc.Series(side, prefix+"3")
		if q1 == nil || q2 == nil || q3 == nil {
			log.Printf("export has no %s-side angle triple, skipping", side)
			continue
		}

		fit, err := kinematics.FitDependencies(side, q1, q2, q3)
		if err != nil {
			log.Fatalf("failed to fit %s side: %v", side, err)
		}
		printFit(fit)
		data = append(data, plotting.DependencyData{Side: side, Q1: q1, Q2: q2, Q3: q3, Fit: fit})
	}
	if len(data) == 0 {
		log.Fatal("export contains no usable angle series")
	}

	if *save != "" {
		if err := plotting.SaveDependencyPlots(data, *save); err != nil {
			log.Fatalf("failed to save dependency plots: %v", err)
		}
		log.Printf("wrote dependency plots to %s", *save)
	}
}

func printFit(fit *kinematics.DependencyFit) {
	fmt.Printf("%s side (%d samples)\n", fit.Side, fit.Samples)
	fmt.Printf("  q1 = phi1(q2): %s  (R2 = %.4f)\n", polyString(fit.Phi1), fit.R2Phi1)
	fmt.Printf("  q3 = phi3(q2): %s  (R2 = %.4f)\n", polyString(fit.Phi3), fit.R2Phi3)
}

// polyString formats ascending coefficients as a readable polynomial.
func polyString(coeffs []float64) string {
	s := ""
	for i, c := range coeffs {
		if i > 0 {
			s += " + "
		}
		switch i {
		case 0:
			s += fmt.Sprintf("%.4f", c)
		case 1:
			s += fmt.Sprintf("%.4f x", c)
		default:
			s += fmt.Sprintf("%.4f x^%d", c, i)
		}
	}
	return s
}
