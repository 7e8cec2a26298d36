package logger

// LogPostFailure logs a per-post failure with the post's identity. Used at
// the orchestrator's post-iteration boundary; these failures never abort
// the run.
func LogPostFailure(messageID, href, phase string, err error) {
	GetLogger().WithFields(map[string]interface{}{
		"message_id": messageID,
		"href":       href,
		"phase":      phase,
	}).WithError(err).Error("post failed")
}

// LogDownload logs the outcome of a single media download
func LogDownload(messageID, url string, success bool, err error) {
	fields := map[string]interface{}{
		"message_id": messageID,
		"url":        url,
		"success":    success,
	}

	l := GetLogger().WithFields(fields)
	if err != nil {
		l.WithError(err).Error("download failed")
	} else if success {
		l.Debug("download completed")
	} else {
		l.Debug("download skipped")
	}
}

// LogWalkProgress logs carousel walk progress across the corpus
func LogWalkProgress(walked, total, mediaFound int) {
	GetLogger().WithFields(map[string]interface{}{
		"walked":      walked,
		"total":       total,
		"media_found": mediaFound,
	}).Info("walk progress")
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("rate limit reached, backing off")
}
