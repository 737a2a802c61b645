// Package resource bounds what dataset transfers may consume.
//
// A Controller governs three resources:
//
//   - Transfers: how many matrices are loaded or saved at once (semaphore)
//   - Memory: bytes of decoded matrix data held at once (weighted semaphore)
//   - IO: bytes per second moved to and from a blob store (token bucket)
//
// Every method accepts a nil *Controller and then imposes no limit, so
// callers never need to check whether limiting is configured:
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentTransfers: 2,
//	    MemoryLimitBytes:       4 << 30,
//	    IOLimitBytesPerSec:     200 << 20,
//	})
//
//	if err := rc.AcquireTransfer(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseTransfer()
//
//	r := resource.NewRateLimitedReader(ctx, blobReader, rc)
package resource
