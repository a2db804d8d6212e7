// SPDX-License-Identifier: MPL-2.0

// Package provision brings the on-disk runtime into the state the
// application needs: a base runtime distribution at a pinned version, an
// isolated environment derived from it, the pinned package manifest
// installed into that environment, and import probes that decide whether
// the environment is usable.
//
// All work happens through a process.Executor and a Downloader, so tests
// drive the full flow with fakes and temporary directories:
//
//	p := provision.New(platform.AdapterFor(plat),
//		provision.WithExecutor(exec),
//		provision.WithDownloader(download.NewClient()),
//	)
//	interp, err := p.EnsureBaseRuntime(ctx, spec)
//
// Every failure is a *Error whose Kind is one of the Err* sentinels.
package provision
