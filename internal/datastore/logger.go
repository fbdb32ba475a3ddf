package datastore

import (
	"log"
	"os"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/thermalab/thermal-ar-go/internal/logging"
)

var logger = logging.ForService("datastore")

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      gormlogger.Warn,
			Colorful:      true,
		},
	)
}
