// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *zap.Logger; a nil logger is replaced by zap.NewNop().
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Development: true})
//	if err != nil {
//		return err
//	}
//	defer logger.Sync()
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
