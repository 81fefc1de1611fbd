package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Level is the depth of a node in the management chain. Lower is higher up.
type Level int

const (
	LevelSupreme Level = iota
	LevelAreaBoss
	LevelCoordinator
	LevelSupervisor
	LevelLeaf
)

// SectionKind marks the synthetic section categories, which carry no job
// title of their own.
type SectionKind int

const (
	SectionNone SectionKind = iota
	SectionTraining
	SectionMonitoring
)

const (
	trainingSectionPhrase   = "seccion capacitacion"
	monitoringSectionPhrase = "seccion monitoreo"
)

// Classify infers the level from a free-text job title. Rules are checked in
// order and the first match wins.
func Classify(title string, section SectionKind) Level {
	if section != SectionNone {
		return LevelCoordinator
	}

	t := fold(title)
	switch {
	case t == "":
		return LevelLeaf
	case strings.Contains(t, "jefe") && strings.Contains(t, "operaciones"):
		return LevelSupreme
	case strings.Contains(t, "jefe"):
		return LevelAreaBoss
	case strings.Contains(t, trainingSectionPhrase), strings.Contains(t, monitoringSectionPhrase):
		return LevelCoordinator
	case strings.Contains(t, "coordinador"):
		return LevelCoordinator
	case strings.Contains(t, "supervisor"):
		return LevelSupervisor
	case strings.Contains(t, "capacitador"), strings.Contains(t, "monitor"):
		// trainers and monitors sit mid-tree but are never searched
		return LevelLeaf
	default:
		return LevelLeaf
	}
}

// fold lowercases s and strips diacritics, so "Coordinación" == "coordinacion".
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
