package core

import (
	"slices"
	"time"
)

// Package is the design package a client bought.
type Package string

const (
	PackageUMKM     Package = "UMKM"
	PackageStandar  Package = "STANDAR"
	PackageGold     Package = "GOLD"
	PackagePlatinum Package = "PLATINUM"
)

// Packages lists the packages in ascending tier order.
var Packages = []Package{PackageUMKM, PackageStandar, PackageGold, PackagePlatinum}

func (p Package) Valid() bool {
	return slices.Contains(Packages, p)
}

// LogoNeeds are the tags offered for kebutuhanLogo. Stored briefs may hold
// other tags too; membership is not restricted to this list.
var LogoNeeds = []string{"Stationery", "social media", "website", "media cetak", "packaging"}

// StatusFlag names one of the five independent brief progress flags.
type StatusFlag string

const (
	StatusProsesDesign StatusFlag = "prosesDesign"
	StatusPreview      StatusFlag = "preview"
	StatusRevisi       StatusFlag = "revisi"
	StatusFinish       StatusFlag = "finish"
	StatusBonus        StatusFlag = "bonus"
)

var StatusFlags = []StatusFlag{StatusProsesDesign, StatusPreview, StatusRevisi, StatusFinish, StatusBonus}

// BriefStatus holds the progress flags. Any combination is valid.
type BriefStatus struct {
	ProsesDesign bool `json:"prosesDesign"`
	Preview      bool `json:"preview"`
	Revisi       bool `json:"revisi"`
	Finish       bool `json:"finish"`
	Bonus        bool `json:"bonus"`
}

func (s *BriefStatus) flag(f StatusFlag) *bool {
	switch f {
	case StatusProsesDesign:
		return &s.ProsesDesign
	case StatusPreview:
		return &s.Preview
	case StatusRevisi:
		return &s.Revisi
	case StatusFinish:
		return &s.Finish
	case StatusBonus:
		return &s.Bonus
	}
	return nil
}

// Set changes one flag.
func (s *BriefStatus) Set(f StatusFlag, on bool) error {
	p := s.flag(f)
	if p == nil {
		return ErrUnknownStatus
	}
	*p = on
	return nil
}

func (s BriefStatus) Get(f StatusFlag) bool {
	if p := s.flag(f); p != nil {
		return *p
	}
	return false
}

// SliderAxis names one bipolar preference dial.
type SliderAxis string

const (
	SliderStyle     SliderAxis = "style"
	SliderPractical SliderAxis = "practical"
	SliderAbstract  SliderAxis = "abstract"
	SliderRetro     SliderAxis = "retro"
	SliderFunny     SliderAxis = "funny"
	SliderBasic     SliderAxis = "basic"
)

var SliderAxes = []SliderAxis{SliderStyle, SliderPractical, SliderAbstract, SliderRetro, SliderFunny, SliderBasic}

// Poles returns the labels for the 0 and 10 ends of the axis.
func (a SliderAxis) Poles() (low, high string) {
	switch a {
	case SliderStyle:
		return "Flat", "Gradient"
	case SliderPractical:
		return "Practical", "Luxury"
	case SliderAbstract:
		return "Abstract", "Elegant"
	case SliderRetro:
		return "Retro", "Modern"
	case SliderFunny:
		return "Funny", "Serious"
	case SliderBasic:
		return "Basic", "Script"
	}
	return "", ""
}

const (
	SliderMin     = 0
	SliderMax     = 10
	SliderDefault = 5
)

type Sliders struct {
	Style     int `json:"style"`
	Practical int `json:"practical"`
	Abstract  int `json:"abstract"`
	Retro     int `json:"retro"`
	Funny     int `json:"funny"`
	Basic     int `json:"basic"`
}

// DefaultSliders puts every dial at mid scale.
func DefaultSliders() Sliders {
	return Sliders{SliderDefault, SliderDefault, SliderDefault, SliderDefault, SliderDefault, SliderDefault}
}

func (s *Sliders) dial(a SliderAxis) *int {
	switch a {
	case SliderStyle:
		return &s.Style
	case SliderPractical:
		return &s.Practical
	case SliderAbstract:
		return &s.Abstract
	case SliderRetro:
		return &s.Retro
	case SliderFunny:
		return &s.Funny
	case SliderBasic:
		return &s.Basic
	}
	return nil
}

func (s Sliders) Get(a SliderAxis) int {
	if p := s.dial(a); p != nil {
		return *p
	}
	return 0
}

// Set moves one dial, rejecting values outside [0,10].
func (s *Sliders) Set(a SliderAxis, v int) error {
	p := s.dial(a)
	if p == nil {
		return ErrUnknownSlider
	}
	if v < SliderMin || v > SliderMax {
		return ErrSliderRange
	}
	*p = v
	return nil
}

func (s Sliders) Validate() error {
	for _, a := range SliderAxes {
		if v := s.Get(a); v < SliderMin || v > SliderMax {
			return ErrSliderRange
		}
	}
	return nil
}

type DesignBrief struct {
	ID             string      `json:"id"`
	Status         BriefStatus `json:"status"`
	NamaLogo       string      `json:"namaLogo"`
	Slogan         string      `json:"slogan"`
	JenisUsaha     string      `json:"jenisUsaha"`
	Deadline       string      `json:"deadline"`
	PemilihanPaket Package     `json:"pemilihanPaket"`
	LunasAmount    string      `json:"lunasAmount"`
	JenisLogo      string      `json:"jenisLogo"`
	DominanColor   string      `json:"dominanColor"`
	KebutuhanLogo  []string    `json:"kebutuhanLogo"`
	KonsepDetail   string      `json:"konsepDetail"`
	ClientColor    string      `json:"clientColor"`
	Catatan        string      `json:"catatan"`
	Sliders        Sliders     `json:"sliders"`
	Referensi      []string    `json:"referensi"`
	PembuatBrief   string      `json:"pembuatBrief"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// HasNeed reports whether tag is selected.
func (b DesignBrief) HasNeed(tag string) bool {
	return slices.Contains(b.KebutuhanLogo, tag)
}

// ToggleNeed removes tag when present and appends it otherwise.
func (b *DesignBrief) ToggleNeed(tag string) {
	if i := slices.Index(b.KebutuhanLogo, tag); i >= 0 {
		b.KebutuhanLogo = slices.Delete(slices.Clone(b.KebutuhanLogo), i, i+1)
		return
	}
	b.KebutuhanLogo = append(slices.Clone(b.KebutuhanLogo), tag)
}

func (b DesignBrief) Validate() error {
	if b.ID == "" {
		return ErrEmptyID
	}
	if !b.PemilihanPaket.Valid() {
		return ErrInvalidPackage
	}
	return b.Sliders.Validate()
}
