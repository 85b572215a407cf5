package shopify

const shopQuery = `
query RevenueScanShop {
  shop {
    name
    myshopifyDomain
    plan {
      displayName
    }
  }
}`

const productsQuery = `
query RevenueScanProducts($first: Int!) {
  products(first: $first) {
    nodes {
      id
      title
      handle
      description
      onlineStoreUrl
      featuredImage {
        url
      }
      images(first: 1) {
        nodes {
          url
        }
      }
    }
  }
}`

const ordersQuery = `
query RevenueScanOrders($first: Int!, $lineItems: Int!, $query: String!) {
  orders(first: $first, reverse: true, sortKey: PROCESSED_AT, query: $query) {
    nodes {
      id
      processedAt
      totalPriceSet {
        shopMoney {
          amount
        }
      }
      lineItems(first: $lineItems) {
        nodes {
          quantity
          product {
            id
            title
          }
          originalTotalSet {
            shopMoney {
              amount
            }
          }
        }
      }
    }
  }
}`

const abandonedCheckoutsQuery = `
query RevenueScanAbandonedCheckouts($first: Int!, $lineItems: Int!) {
  abandonedCheckouts(first: $first, reverse: true, sortKey: CREATED_AT) {
    nodes {
      id
      abandonedAt: createdAt
      completedAt
      email
      customer {
        id
        email
        firstName
        lastName
      }
      totalPriceSet {
        shopMoney {
          amount
        }
      }
      lineItems(first: $lineItems) {
        nodes {
          title
          quantity
          originalTotalPriceSet {
            shopMoney {
              amount
            }
          }
          product {
            id
            title
          }
        }
      }
    }
  }
}`

const themesQuery = `
query RevenueScanThemes($first: Int!) {
  themes(first: $first) {
    nodes {
      id
      name
      role
    }
  }
}`

const installedAppsQuery = `
query RevenueScanInstalledApps($first: Int!) {
  appInstallations(first: $first) {
    nodes {
      id
      app {
        title
      }
    }
  }
}`

const pagesQuery = `
query RevenueScanPages($first: Int!) {
  pages(first: $first) {
    nodes {
      id
      title
      handle
    }
  }
}`

const themeFilesQuery = `
query RevenueScanThemeFiles($filenames: [String!]!, $first: Int!) {
  themes(first: 1, roles: [MAIN]) {
    nodes {
      files(filenames: $filenames, first: $first) {
        nodes {
          filename
          body {
            ... on OnlineStoreThemeFileBodyText {
              content
            }
          }
        }
      }
    }
  }
}`
