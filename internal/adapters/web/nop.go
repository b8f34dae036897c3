package web

import (
	"github.com/Adi0604/Water-Works/internal/domain"
	"github.com/Adi0604/Water-Works/internal/ports"
)

type nopObs struct{}

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogWarn(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}
func (nopObs) IncCounter(string, float64)             {}
func (nopObs) ObserveLatency(string, float64)         {}
func (nopObs) SetGauge(string, float64)               {}
func (nopObs) RecordMissing(domain.MissingSignal)     {}
