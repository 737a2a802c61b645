// Package dataset moves featmap matrices and run manifests in and out of a
// blobstore.BlobStore.
//
// Matrices are stored in the csr binary format. Every load and save is
// admitted by a resource controller that bounds concurrent transfers,
// decoded memory and IO bandwidth.
//
// A run is published by writing its manifest to runs/<id>/manifest.json and
// then pointing CURRENT at it:
//
//	ds := dataset.New(store)
//	x, _ := ds.Load(ctx, "x.fmcs")
//	...
//	n, _ := ds.Save(ctx, dataset.RunPath(id, "y.fmcs"), res.Matrix)
//	_ = ds.Publish(ctx, dataset.NewManifest(id, inputs, artifact, res))
package dataset
