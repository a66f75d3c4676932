package chat

import (
	"context"
	"errors"
	"time"

	"github.com/Dzamal6/AMS-API/core"
)

// EndSession tears down every remote resource the conversation created:
// agents, files, the retrieval index and the thread. Deletions never
// short-circuit; an already-absent resource counts as deleted and genuine
// failures are collected per resource so the caller can retry with the same
// ids later. The returned result is data, not an error: from the user's
// perspective the session always ends.
//
// EndSession is safe to call repeatedly with the same tracker state; a
// clean second run reports zero failures.
func (s *Service) EndSession(ctx context.Context, tracker *core.Tracker) *core.TeardownResult {
	start := time.Now()
	result := &core.TeardownResult{}

	for _, agentID := range dedup(tracker.AgentIDs()) {
		if err := s.provider.DeleteAgent(ctx, agentID); err != nil && !errors.Is(err, core.ErrNotFound) {
			result.Failures = append(result.Failures, core.ResourceFailure{
				Kind: core.ResourceAgent, ID: agentID, Err: err,
			})
			continue
		}
		result.AgentsDeleted++
	}

	for _, fileID := range dedup(tracker.FileIDs()) {
		if err := s.provider.DeleteFile(ctx, fileID); err != nil && !errors.Is(err, core.ErrNotFound) {
			result.Failures = append(result.Failures, core.ResourceFailure{
				Kind: core.ResourceFile, ID: fileID, Err: err,
			})
			continue
		}
		result.FilesDeleted++
	}

	if vsID := tracker.VectorStoreID(); vsID != "" {
		if err := s.provider.DeleteVectorStore(ctx, vsID); err != nil && !errors.Is(err, core.ErrNotFound) {
			result.Failures = append(result.Failures, core.ResourceFailure{
				Kind: core.ResourceVectorStore, ID: vsID, Err: err,
			})
		} else {
			result.VectorStoreDeleted = true
		}
	}

	if threadID := tracker.ThreadID(); threadID != "" {
		if err := s.provider.DeleteThread(ctx, threadID); err != nil && !errors.Is(err, core.ErrNotFound) {
			result.Failures = append(result.Failures, core.ResourceFailure{
				Kind: core.ResourceThread, ID: threadID, Err: err,
			})
		} else {
			result.ThreadDeleted = true
		}
	}

	s.logger.LogTeardown(result.AgentsDeleted, result.FilesDeleted, len(result.Failures), time.Since(start))

	if result.OK() {
		tracker.Reset()
	}
	return result
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
