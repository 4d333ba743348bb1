package shopify

// CollectionsQuery pages through collections with their ship-window
// metafields. A missing metafield means the collection is unconstrained.
const CollectionsQuery = `
query collections($first: Int!, $after: String) {
  collections(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        legacyResourceId
        title
        shipWindowStart: metafield(namespace: "wholesale", key: "ship_window_start") {
          value
        }
        shipWindowEnd: metafield(namespace: "wholesale", key: "ship_window_end") {
          value
        }
      }
    }
  }
}
`

// ProductsQuery pages through products with their variants and first
// collection membership. Variants without a SKU are skipped by the sync.
const ProductsQuery = `
query products($first: Int!, $after: String) {
  products(first: $first, after: $after) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        title
        status
        collections(first: 1) {
          edges {
            node {
              legacyResourceId
            }
          }
        }
        variants(first: 250) {
          edges {
            node {
              legacyResourceId
              sku
              title
              price
            }
          }
        }
      }
    }
  }
}
`
