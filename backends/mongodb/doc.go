/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mongodb provides the document backend over the official mongo
// driver, including ObjectID coercion and $lookup emulation of
// join-qualified where conditions.
package mongodb
