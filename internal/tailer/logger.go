package tailer

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// zerologAdapter routes nxadm/tail's internal notices (file appeared,
// re-opened after rotation) through the process logger.
type zerologAdapter struct{}

func (zerologAdapter) Print(v ...interface{})                 { log.Info().Msg(fmt.Sprint(v...)) }
func (zerologAdapter) Printf(format string, v ...interface{}) { log.Info().Msgf(format, v...) }
func (zerologAdapter) Println(v ...interface{})               { log.Info().Msg(fmt.Sprint(v...)) }
func (zerologAdapter) Fatal(v ...interface{})                 { log.Fatal().Msg(fmt.Sprint(v...)) }
func (zerologAdapter) Fatalf(format string, v ...interface{}) { log.Fatal().Msgf(format, v...) }
func (zerologAdapter) Fatalln(v ...interface{})               { log.Fatal().Msg(fmt.Sprint(v...)) }
func (zerologAdapter) Panic(v ...interface{})                 { log.Panic().Msg(fmt.Sprint(v...)) }
func (zerologAdapter) Panicf(format string, v ...interface{}) { log.Panic().Msgf(format, v...) }
func (zerologAdapter) Panicln(v ...interface{})               { log.Panic().Msg(fmt.Sprint(v...)) }
